// Package history provides the engine's read interfaces to its collaborators
// (History Store, Analytics Source, Feedback Sink) plus a GORM-backed
// implementation so the service can run standalone.
package history

import (
	"context"
	"time"

	"github.com/primoscope/echotune/internal/models"
)

// AggregateStats is the Analytics Source response for one user.
type AggregateStats struct {
	TotalTracks   int      `json:"total_tracks"`
	UniqueArtists int      `json:"unique_artists"`
	TopArtists    []string `json:"top_artists"`
}

// TrackPlays pairs a track with its play count over a window.
type TrackPlays struct {
	TrackID   string `json:"track_id"`
	PlayCount int64  `json:"play_count"`
}

// Store is the History Store: the source of truth for play events and
// per-track audio features. The engine only reads.
type Store interface {
	// GetRecentPlays returns the user's most recent plays, newest first,
	// bounded by windowSize.
	GetRecentPlays(ctx context.Context, userID string, windowSize int) ([]models.PlayEvent, error)

	// GetTrackAudioFeatures resolves catalog entries for the given track IDs.
	GetTrackAudioFeatures(ctx context.Context, trackIDs []string) ([]models.Track, error)

	// GetActiveUsers lists users with at least one play besides exceptUserID,
	// for collaborative neighbor candidate enumeration.
	GetActiveUsers(ctx context.Context, exceptUserID string, limit int) ([]string, error)

	// GetRecentPlaysForUsers bulk-reads recent plays for many users in one
	// call, so neighbor scoring never does I/O per candidate.
	GetRecentPlaysForUsers(ctx context.Context, userIDs []string, windowSize int) (map[string][]models.PlayEvent, error)

	// GetTrendingTracks returns the most played tracks over the rolling window.
	GetTrendingTracks(ctx context.Context, window time.Duration, limit int) ([]TrackPlays, error)
}

// AnalyticsSource supplies aggregate statistics per user.
type AnalyticsSource interface {
	GetAggregateStats(ctx context.Context, userID string) (AggregateStats, error)
}

// FeedbackSink durably records processed feedback events.
type FeedbackSink interface {
	RecordFeedback(ctx context.Context, event *models.FeedbackEvent) error
}
