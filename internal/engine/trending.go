package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/primoscope/echotune/internal/history"
	"github.com/primoscope/echotune/internal/models"
)

// trendingBaseScore is the flat raw score for popularity picks. Combined
// with the smallest source weight, trending fills gaps without ever
// dominating personalized sources.
const trendingBaseScore = 0.75

// TrendingSource supplies globally popular tracks over a rolling window as a
// diversity and cold-start backstop.
type TrendingSource struct {
	store  history.Store
	window time.Duration
}

// NewTrendingSource creates a trending source with the given rolling window.
func NewTrendingSource(store history.Store, window time.Duration) *TrendingSource {
	return &TrendingSource{store: store, window: window}
}

// Recommend returns the window's most played tracks, excluding playedSet,
// each with the flat base score.
func (r *TrendingSource) Recommend(ctx context.Context, playedSet map[string]struct{}, limit int) ([]Candidate, error) {
	// Over-fetch so exclusions don't starve the list.
	rows, err := r.store.GetTrendingTracks(ctx, r.window, limit*2)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trending tracks: %w", err)
	}

	trackIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		if _, played := playedSet[row.TrackID]; played {
			continue
		}
		trackIDs = append(trackIDs, row.TrackID)
		if len(trackIDs) == limit {
			break
		}
	}
	if len(trackIDs) == 0 {
		return []Candidate{}, nil
	}

	tracks, err := r.store.GetTrackAudioFeatures(ctx, trackIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve trending tracks: %w", err)
	}
	trackByID := make(map[string]*models.Track, len(tracks))
	for i := range tracks {
		trackByID[tracks[i].ID] = &tracks[i]
	}

	// Preserve popularity order from the aggregate.
	out := make([]Candidate, 0, len(trackIDs))
	for _, trackID := range trackIDs {
		track, ok := trackByID[trackID]
		if !ok {
			continue
		}
		out = append(out, Candidate{
			TrackID:       track.ID,
			TrackName:     track.Name,
			ArtistName:    track.Artist,
			RawScore:      trendingBaseScore,
			Source:        SourceTrending,
			SourceWeight:  SourceTrending.Weight(),
			AudioFeatures: track.Features(),
		})
	}
	return out, nil
}
