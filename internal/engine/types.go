// Package engine implements the hybrid music recommendation engine: profile
// building, user similarity, the four candidate sources, hybrid ranking and
// feedback processing.
package engine

import (
	"time"

	"github.com/primoscope/echotune/internal/models"
)

// Source identifies which recommender produced a candidate.
type Source string

const (
	SourceCollaborative Source = "collaborative"
	SourceContent       Source = "content"
	SourceContextual    Source = "contextual"
	SourceTrending      Source = "trending"
	SourceFallback      Source = "fallback"
)

// SourceWeights is the fixed weight table applied during hybrid ranking.
// Trending is held to the smallest weight so it never dominates; fallback
// picks reuse it.
var SourceWeights = map[Source]float64{
	SourceCollaborative: 0.3,
	SourceContent:       0.4,
	SourceContextual:    0.2,
	SourceTrending:      0.1,
	SourceFallback:      0.1,
}

// Weight returns the ranking weight for the source.
func (s Source) Weight() float64 {
	return SourceWeights[s]
}

// Candidate is an unranked, source-tagged recommendation proposal.
// Ephemeral: produced by a recommender, consumed only by the ranker.
type Candidate struct {
	TrackID       string
	TrackName     string
	ArtistName    string
	RawScore      float64
	Source        Source
	SourceWeight  float64
	AudioFeatures models.AudioFeatures
}

// Recommendation is the ranked, explainable output of the engine.
type Recommendation struct {
	TrackID    string   `json:"track_id"`
	TrackName  string   `json:"track_name"`
	ArtistName string   `json:"artist_name"`
	FinalScore float64  `json:"final_score"` // always in [0,1]
	Rationale  []string `json:"rationale"`
	Source     Source   `json:"source"`
}

// SimilarityScore is the derived pairwise user similarity. Never persisted;
// recomputed on every request (caching, if any, belongs to the profile
// store's TTL cache around the caller).
type SimilarityScore struct {
	UserIDA          string  `json:"user_id_a"`
	UserIDB          string  `json:"user_id_b"`
	Score            float64 `json:"score"` // in [0,1], symmetric
	CommonTrackCount int     `json:"common_track_count"`
}

// Context carries the caller's mood/activity/time-of-day hints.
// All fields optional; TimeOfDay is derived from the clock when empty.
type Context struct {
	Mood      string `json:"mood,omitempty"`
	Activity  string `json:"activity,omitempty"`
	TimeOfDay string `json:"time_of_day,omitempty"`
}

// Empty reports whether no context tag was supplied.
func (c Context) Empty() bool {
	return c.Mood == "" && c.Activity == "" && c.TimeOfDay == ""
}

// recencyWeight decays the influence of older plays stepwise.
func recencyWeight(playedAt time.Time, now time.Time) float64 {
	age := now.Sub(playedAt)
	switch {
	case age <= 7*24*time.Hour:
		return 1.0
	case age <= 30*24*time.Hour:
		return 0.8
	case age <= 90*24*time.Hour:
		return 0.6
	case age <= 180*24*time.Hour:
		return 0.4
	default:
		return 0.2
	}
}
