package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/primoscope/echotune/internal/history"
	"github.com/primoscope/echotune/internal/models"
)

// Similarity component weights.
const (
	jaccardWeight = 0.7
	patternWeight = 0.3

	// Inside the temporal-pattern term.
	hourCosineWeight = 0.6
	freqRatioWeight  = 0.4
)

// SimilarityEngine computes pairwise user similarity from play history:
// track-set overlap (Jaccard) blended with a temporal listening pattern term.
type SimilarityEngine struct {
	store      history.Store
	playWindow int
	now        func() time.Time
}

// NewSimilarityEngine creates a similarity engine reading bounded recent
// windows from the history store.
func NewSimilarityEngine(store history.Store, playWindow int) *SimilarityEngine {
	return &SimilarityEngine{
		store:      store,
		playWindow: playWindow,
		now:        time.Now,
	}
}

// Similarity fetches both users' recent plays and scores them.
// The score is symmetric and recomputed on every call.
func (e *SimilarityEngine) Similarity(ctx context.Context, userA, userB string) (SimilarityScore, error) {
	plays, err := e.store.GetRecentPlaysForUsers(ctx, []string{userA, userB}, e.playWindow)
	if err != nil {
		return SimilarityScore{}, fmt.Errorf("failed to fetch plays for similarity: %w", err)
	}
	return e.Compare(userA, plays[userA], userB, plays[userB]), nil
}

// Compare scores two users from already-fetched play windows. Pure: no I/O,
// so callers can batch one bulk read across many candidate neighbors.
func (e *SimilarityEngine) Compare(userA string, playsA []models.PlayEvent, userB string, playsB []models.PlayEvent) SimilarityScore {
	score := SimilarityScore{UserIDA: userA, UserIDB: userB}

	// Either user silent: similarity is 0 outright.
	if len(playsA) == 0 || len(playsB) == 0 {
		return score
	}

	setA := trackSet(playsA)
	setB := trackSet(playsB)
	jaccard, common := jaccardSimilarity(setA, setB)
	score.CommonTrackCount = common

	pattern := e.patternSimilarity(playsA, playsB)

	score.Score = clamp01(jaccardWeight*jaccard + patternWeight*pattern)
	return score
}

// patternSimilarity blends hour-histogram cosine with a play-frequency ratio.
func (e *SimilarityEngine) patternSimilarity(playsA, playsB []models.PlayEvent) float64 {
	histA := hourHistogram(playsA)
	histB := hourHistogram(playsB)
	hourSim := cosineSimilarity(histA[:], histB[:])

	now := e.now()
	freqA := playFrequency(playsA, now)
	freqB := playFrequency(playsB, now)

	freqRatio := 0.0
	if freqA > 0 && freqB > 0 {
		if freqA < freqB {
			freqRatio = freqA / freqB
		} else {
			freqRatio = freqB / freqA
		}
	}

	return hourCosineWeight*hourSim + freqRatioWeight*freqRatio
}

// playFrequency is total plays per day since the user's first play,
// with a minimum denominator of one day.
func playFrequency(plays []models.PlayEvent, now time.Time) float64 {
	if len(plays) == 0 {
		return 0
	}
	first := plays[0].PlayedAt
	for _, play := range plays[1:] {
		if play.PlayedAt.Before(first) {
			first = play.PlayedAt
		}
	}
	days := now.Sub(first).Hours() / 24
	if days < 1 {
		days = 1
	}
	return float64(len(plays)) / days
}

func trackSet(plays []models.PlayEvent) map[string]struct{} {
	set := make(map[string]struct{}, len(plays))
	for _, play := range plays {
		set[play.TrackID] = struct{}{}
	}
	return set
}

func hourHistogram(plays []models.PlayEvent) [24]float64 {
	var hist [24]float64
	for _, play := range plays {
		hist[play.PlayedAt.UTC().Hour()]++
	}
	return hist
}
