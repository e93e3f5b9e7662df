package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/primoscope/echotune/internal/history"
	"github.com/primoscope/echotune/internal/models"
)

// Neighbor qualification bounds.
const (
	neighborSimilarityThreshold = 0.1
	neighborMinCommonTracks     = 5
	neighborCap                 = 50
	neighborCandidatePool       = 200
)

// CollaborativeRecommender surfaces tracks played by the K most similar
// users, weighted by neighbor similarity and play recency.
type CollaborativeRecommender struct {
	store      history.Store
	similarity *SimilarityEngine
	playWindow int
	now        func() time.Time
}

// NewCollaborativeRecommender creates a collaborative filtering source.
func NewCollaborativeRecommender(store history.Store, similarity *SimilarityEngine, playWindow int) *CollaborativeRecommender {
	return &CollaborativeRecommender{
		store:      store,
		similarity: similarity,
		playWindow: playWindow,
		now:        time.Now,
	}
}

// Recommend returns candidates from qualified neighbors' play history,
// excluding tracks in playedSet. No qualifying neighbors is not an error:
// the hybrid merge absorbs an empty list.
func (r *CollaborativeRecommender) Recommend(ctx context.Context, userID string, playedSet map[string]struct{}, userPlays []models.PlayEvent, limit int) ([]Candidate, error) {
	if len(userPlays) == 0 {
		// Cold start: nothing to compare against.
		return []Candidate{}, nil
	}

	candidates, err := r.store.GetActiveUsers(ctx, userID, neighborCandidatePool)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate neighbor candidates: %w", err)
	}
	if len(candidates) == 0 {
		return []Candidate{}, nil
	}

	// One bulk read for every candidate's window; scoring below is pure.
	playsByUser, err := r.store.GetRecentPlaysForUsers(ctx, candidates, r.playWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch neighbor plays: %w", err)
	}

	type neighbor struct {
		userID string
		score  float64
		plays  []models.PlayEvent
	}

	neighbors := make([]neighbor, 0, len(candidates))
	for _, other := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		otherPlays := playsByUser[other]
		sim := r.similarity.Compare(userID, userPlays, other, otherPlays)
		if sim.Score < neighborSimilarityThreshold || sim.CommonTrackCount < neighborMinCommonTracks {
			continue
		}
		neighbors = append(neighbors, neighbor{userID: other, score: sim.Score, plays: otherPlays})
	}

	if len(neighbors) == 0 {
		return []Candidate{}, nil
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].score != neighbors[j].score {
			return neighbors[i].score > neighbors[j].score
		}
		return neighbors[i].userID < neighbors[j].userID
	})
	if len(neighbors) > neighborCap {
		neighbors = neighbors[:neighborCap]
	}

	// Accumulate neighborSimilarity * recencyWeight per unseen track.
	// Summed, not averaged: tracks backed by many neighbors rank higher.
	now := r.now()
	scores := make(map[string]float64)
	for _, n := range neighbors {
		for _, play := range n.plays {
			if _, played := playedSet[play.TrackID]; played {
				continue
			}
			scores[play.TrackID] += n.score * recencyWeight(play.PlayedAt, now)
		}
	}
	if len(scores) == 0 {
		return []Candidate{}, nil
	}

	trackIDs := make([]string, 0, len(scores))
	for trackID := range scores {
		trackIDs = append(trackIDs, trackID)
	}
	tracks, err := r.store.GetTrackAudioFeatures(ctx, trackIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve candidate tracks: %w", err)
	}

	out := make([]Candidate, 0, len(tracks))
	for i := range tracks {
		track := &tracks[i]
		out = append(out, Candidate{
			TrackID:       track.ID,
			TrackName:     track.Name,
			ArtistName:    track.Artist,
			RawScore:      scores[track.ID],
			Source:        SourceCollaborative,
			SourceWeight:  SourceCollaborative.Weight(),
			AudioFeatures: track.Features(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RawScore != out[j].RawScore {
			return out[i].RawScore > out[j].RawScore
		}
		return out[i].TrackID < out[j].TrackID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
