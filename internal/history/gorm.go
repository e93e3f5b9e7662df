package history

import (
	"context"
	"fmt"
	"time"

	"github.com/primoscope/echotune/internal/models"
	"gorm.io/gorm"
)

// GormStore implements Store, AnalyticsSource and FeedbackSink over GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store bound to an open database connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// GetRecentPlays returns the user's most recent plays, newest first.
func (s *GormStore) GetRecentPlays(ctx context.Context, userID string, windowSize int) ([]models.PlayEvent, error) {
	var plays []models.PlayEvent
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("played_at DESC").
		Limit(windowSize).
		Find(&plays).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent plays: %w", err)
	}
	return plays, nil
}

// GetTrackAudioFeatures resolves catalog entries for the given track IDs.
func (s *GormStore) GetTrackAudioFeatures(ctx context.Context, trackIDs []string) ([]models.Track, error) {
	if len(trackIDs) == 0 {
		return []models.Track{}, nil
	}
	var tracks []models.Track
	err := s.db.WithContext(ctx).
		Where("id IN ?", trackIDs).
		Find(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tracks: %w", err)
	}
	return tracks, nil
}

// GetRecentPlaysForUsers bulk-reads plays for many users in one query.
// The per-user window is approximated by reading windowSize*len(userIDs)
// newest rows and bucketing; good enough for neighbor scoring.
func (s *GormStore) GetRecentPlaysForUsers(ctx context.Context, userIDs []string, windowSize int) (map[string][]models.PlayEvent, error) {
	out := make(map[string][]models.PlayEvent, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var plays []models.PlayEvent
	err := s.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("played_at DESC").
		Limit(windowSize * len(userIDs)).
		Find(&plays).Error
	if err != nil {
		return nil, fmt.Errorf("failed to bulk fetch plays: %w", err)
	}
	for _, play := range plays {
		if len(out[play.UserID]) < windowSize {
			out[play.UserID] = append(out[play.UserID], play)
		}
	}
	return out, nil
}

// GetActiveUsers lists distinct users with plays, excluding exceptUserID.
func (s *GormStore) GetActiveUsers(ctx context.Context, exceptUserID string, limit int) ([]string, error) {
	var userIDs []string
	err := s.db.WithContext(ctx).
		Model(&models.PlayEvent{}).
		Distinct("user_id").
		Where("user_id <> ?", exceptUserID).
		Limit(limit).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate active users: %w", err)
	}
	return userIDs, nil
}

// GetTrendingTracks returns the most played tracks over the rolling window.
func (s *GormStore) GetTrendingTracks(ctx context.Context, window time.Duration, limit int) ([]TrackPlays, error) {
	since := time.Now().Add(-window)
	var rows []TrackPlays
	err := s.db.WithContext(ctx).
		Model(&models.PlayEvent{}).
		Select("track_id, COUNT(*) AS play_count").
		Where("played_at >= ?", since).
		Group("track_id").
		Order("play_count DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute trending tracks: %w", err)
	}
	return rows, nil
}

// GetAggregateStats computes per-user totals from the play log.
func (s *GormStore) GetAggregateStats(ctx context.Context, userID string) (AggregateStats, error) {
	var stats AggregateStats

	var totalTracks int64
	err := s.db.WithContext(ctx).
		Model(&models.PlayEvent{}).
		Where("user_id = ?", userID).
		Distinct("track_id").
		Count(&totalTracks).Error
	if err != nil {
		return stats, fmt.Errorf("failed to count tracks: %w", err)
	}
	stats.TotalTracks = int(totalTracks)

	var uniqueArtists int64
	err = s.db.WithContext(ctx).
		Model(&models.PlayEvent{}).
		Joins("JOIN tracks ON tracks.id = play_events.track_id").
		Where("play_events.user_id = ?", userID).
		Distinct("tracks.artist").
		Count(&uniqueArtists).Error
	if err != nil {
		return stats, fmt.Errorf("failed to count artists: %w", err)
	}
	stats.UniqueArtists = int(uniqueArtists)

	err = s.db.WithContext(ctx).
		Model(&models.PlayEvent{}).
		Select("tracks.artist").
		Joins("JOIN tracks ON tracks.id = play_events.track_id").
		Where("play_events.user_id = ?", userID).
		Group("tracks.artist").
		Order("COUNT(*) DESC").
		Limit(5).
		Pluck("tracks.artist", &stats.TopArtists).Error
	if err != nil {
		return stats, fmt.Errorf("failed to rank artists: %w", err)
	}

	return stats, nil
}

// RecordFeedback durably persists a processed feedback event.
func (s *GormStore) RecordFeedback(ctx context.Context, event *models.FeedbackEvent) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}
	return nil
}

// SourceCTR reports clicks/impressions per recommendation source since a
// given time, for CTR analysis.
type SourceCTR struct {
	Source      string  `json:"source"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CTR         float64 `json:"ctr"`
}

// GetSourceCTR computes click-through rates per recommendation source.
func (s *GormStore) GetSourceCTR(ctx context.Context, since time.Time) ([]SourceCTR, error) {
	sources := []string{"collaborative", "content", "contextual", "trending", "fallback"}

	metrics := make([]SourceCTR, 0, len(sources))
	for _, source := range sources {
		var impressions, clicks int64

		err := s.db.WithContext(ctx).
			Model(&models.RecommendationImpression{}).
			Where("source = ? AND created_at >= ?", source, since).
			Count(&impressions).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count impressions for %s: %w", source, err)
		}

		err = s.db.WithContext(ctx).
			Model(&models.RecommendationImpression{}).
			Where("source = ? AND created_at >= ? AND clicked = ?", source, since, true).
			Count(&clicks).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count clicks for %s: %w", source, err)
		}

		ctr := 0.0
		if impressions > 0 {
			ctr = float64(clicks) / float64(impressions) * 100
		}

		metrics = append(metrics, SourceCTR{
			Source:      source,
			Impressions: impressions,
			Clicks:      clicks,
			CTR:         ctr,
		})
	}

	return metrics, nil
}

// RecordImpressions batch-inserts impression rows for a ranked result.
func (s *GormStore) RecordImpressions(ctx context.Context, impressions []models.RecommendationImpression) error {
	if len(impressions) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&impressions, 100).Error; err != nil {
		return fmt.Errorf("failed to record impressions: %w", err)
	}
	return nil
}
