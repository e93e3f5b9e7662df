package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/primoscope/echotune/internal/cache"
	"github.com/primoscope/echotune/internal/history"
	"github.com/primoscope/echotune/internal/logger"
	"github.com/primoscope/echotune/internal/metrics"
	"github.com/primoscope/echotune/internal/models"
	"go.uber.org/zap"
)

// feedbackNudgeFactor scales the immediate preference delta per event.
const feedbackNudgeFactor = 0.1

// ProfileStore builds and caches per-user preference profiles.
// Profiles live in the injected cache for the configured TTL and are rebuilt
// lazily. A keyed mutex guarantees at most one in-flight build or recompute
// per user, so a feedback nudge can never race a full recompute.
type ProfileStore struct {
	store      history.Store
	analytics  history.AnalyticsSource
	cache      cache.Store
	locks      *cache.KeyedMutex
	ttl        time.Duration
	playWindow int
	now        func() time.Time
}

// NewProfileStore creates a profile store over the given collaborators.
func NewProfileStore(store history.Store, analytics history.AnalyticsSource, cacheStore cache.Store, ttl time.Duration, playWindow int) *ProfileStore {
	return &ProfileStore{
		store:      store,
		analytics:  analytics,
		cache:      cacheStore,
		locks:      cache.NewKeyedMutex(),
		ttl:        ttl,
		playWindow: playWindow,
		now:        time.Now,
	}
}

// GetProfile returns the user's profile, building it from the Analytics
// Source and recent plays when no valid cached entry exists.
func (s *ProfileStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.getLocked(ctx, userID)
}

func (s *ProfileStore) getLocked(ctx context.Context, userID string) (*models.UserProfile, error) {
	if cached, ok := s.readCache(ctx, userID); ok {
		metrics.Get().CacheHitsTotal.WithLabelValues("profile").Inc()
		return cached, nil
	}
	metrics.Get().CacheMissesTotal.WithLabelValues("profile").Inc()

	profile, err := s.build(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, profile)
	return profile, nil
}

// ApplyFeedbackDelta nudges the cached profile's feature preferences by
// weight(action) * featureValue * 0.1 for each feature present on the event.
// Values are clamped to the feature's domain.
func (s *ProfileStore) ApplyFeedbackDelta(ctx context.Context, userID string, event *models.FeedbackEvent) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	profile, err := s.getLocked(ctx, userID)
	if err != nil {
		return err
	}

	weight := event.Action.Weight()
	for name, value := range event.AudioFeatures {
		current := profile.AudioFeaturePreferences[name]
		profile.AudioFeaturePreferences[name] = models.ClampFeature(name, current+weight*value*feedbackNudgeFactor)
	}
	now := s.now().UTC()
	profile.LastUpdated = now

	// Write back with the entry's remaining lifetime. Renewing the full TTL
	// here would let a steady feedback stream postpone the lazy rebuild
	// forever.
	remaining := s.ttl - now.Sub(profile.BuiltAt)
	if remaining <= 0 {
		return nil
	}
	s.writeCacheTTL(ctx, profile, remaining)
	return nil
}

// Recompute discards the cached profile and rebuilds it from source data.
// Used by the batch feedback drain.
func (s *ProfileStore) Recompute(ctx context.Context, userID string) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	if err := s.cache.Delete(ctx, userID); err != nil {
		logger.Warn("Failed to invalidate profile cache entry",
			logger.WithUserID(userID), zap.Error(err))
	}

	profile, err := s.build(ctx, userID)
	if err != nil {
		return err
	}
	s.writeCache(ctx, profile)
	return nil
}

// InvalidateAll flushes every cached profile. Profiles rebuild lazily on the
// next read, bounding staleness to the refresh interval.
func (s *ProfileStore) InvalidateAll(ctx context.Context) error {
	return s.cache.Flush(ctx)
}

func (s *ProfileStore) readCache(ctx context.Context, userID string) (*models.UserProfile, bool) {
	raw, ok, err := s.cache.Get(ctx, userID)
	if err != nil {
		logger.Warn("Profile cache read failed",
			logger.WithUserID(userID), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var profile models.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		logger.Warn("Corrupt profile cache entry dropped",
			logger.WithUserID(userID), zap.Error(err))
		return nil, false
	}
	return &profile, true
}

func (s *ProfileStore) writeCache(ctx context.Context, profile *models.UserProfile) {
	s.writeCacheTTL(ctx, profile, s.ttl)
}

func (s *ProfileStore) writeCacheTTL(ctx context.Context, profile *models.UserProfile, ttl time.Duration) {
	raw, err := json.Marshal(profile)
	if err != nil {
		logger.Warn("Failed to marshal profile", logger.WithUserID(profile.UserID), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, profile.UserID, raw, ttl); err != nil {
		logger.Warn("Profile cache write failed", logger.WithUserID(profile.UserID), zap.Error(err))
	}
}

// build constructs a profile from the Analytics Source and recent plays.
// An unavailable Analytics Source degrades to stats derived from the play
// window rather than failing the request.
func (s *ProfileStore) build(ctx context.Context, userID string) (*models.UserProfile, error) {
	plays, err := s.store.GetRecentPlays(ctx, userID, s.playWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to read play history for %s: %w", userID, err)
	}

	if len(plays) == 0 {
		return models.NewColdStartProfile(userID), nil
	}

	trackIDs := make([]string, 0, len(plays))
	seen := make(map[string]struct{}, len(plays))
	for _, play := range plays {
		if _, ok := seen[play.TrackID]; !ok {
			seen[play.TrackID] = struct{}{}
			trackIDs = append(trackIDs, play.TrackID)
		}
	}

	tracks, err := s.store.GetTrackAudioFeatures(ctx, trackIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to read track features for %s: %w", userID, err)
	}
	trackByID := make(map[string]models.Track, len(tracks))
	for _, track := range tracks {
		trackByID[track.ID] = track
	}

	stats, err := s.analytics.GetAggregateStats(ctx, userID)
	if err != nil {
		logger.Warn("Analytics source unavailable, deriving stats from play window",
			logger.WithUserID(userID), zap.Error(err))
		stats = deriveStats(plays, trackByID)
	}

	now := s.now().UTC()
	profile := &models.UserProfile{
		UserID:                  userID,
		AudioFeaturePreferences: models.AudioFeatures{},
		GenreAffinities:         map[string]float64{},
		TotalTracks:             stats.TotalTracks,
		BuiltAt:                 now,
		LastUpdated:             now,
	}

	// Recency-weighted average per feature, plus listening-time histograms
	// and genre play shares.
	featureSums := map[string]float64{}
	var weightSum float64
	genreCounts := map[string]float64{}

	for _, play := range plays {
		profile.ListeningHourHistogram[play.PlayedAt.UTC().Hour()]++
		profile.ListeningDayHistogram[int(play.PlayedAt.UTC().Weekday())]++

		track, ok := trackByID[play.TrackID]
		if !ok {
			continue
		}
		w := recencyWeight(play.PlayedAt, now)
		for name, value := range track.Features() {
			featureSums[name] += value * w
		}
		weightSum += w
		for _, genre := range track.Genre {
			genreCounts[genre]++
		}
	}

	if weightSum > 0 {
		for name, sum := range featureSums {
			profile.AudioFeaturePreferences[name] = models.ClampFeature(name, sum/weightSum)
		}
	}

	if len(plays) > 0 {
		for genre, count := range genreCounts {
			profile.GenreAffinities[genre] = count / float64(len(plays))
		}
	}

	if stats.TotalTracks > 0 {
		profile.DiversityScore = clamp01(float64(stats.UniqueArtists) / float64(stats.TotalTracks))
	}

	return profile, nil
}

// deriveStats approximates aggregate stats from the bounded play window when
// the Analytics Source is down.
func deriveStats(plays []models.PlayEvent, trackByID map[string]models.Track) history.AggregateStats {
	trackSet := make(map[string]struct{})
	artistSet := make(map[string]struct{})
	for _, play := range plays {
		trackSet[play.TrackID] = struct{}{}
		if track, ok := trackByID[play.TrackID]; ok {
			artistSet[track.Artist] = struct{}{}
		}
	}
	return history.AggregateStats{
		TotalTracks:   len(trackSet),
		UniqueArtists: len(artistSet),
	}
}
