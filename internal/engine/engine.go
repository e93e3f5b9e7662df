package engine

import (
	"context"
	"sync"
	"time"

	"github.com/primoscope/echotune/internal/cache"
	"github.com/primoscope/echotune/internal/config"
	"github.com/primoscope/echotune/internal/history"
	"github.com/primoscope/echotune/internal/logger"
	"github.com/primoscope/echotune/internal/metrics"
	"github.com/primoscope/echotune/internal/models"
	"go.uber.org/zap"
)

const (
	defaultLimit  = 20
	maxLimit      = 100
	candidatePool = 200
)

// ImpressionRecorder persists shown recommendations for CTR analysis.
// Optional: a nil recorder disables impression tracking.
type ImpressionRecorder interface {
	RecordImpressions(ctx context.Context, impressions []models.RecommendationImpression) error
}

// Options are the caller's knobs for one recommendation request.
type Options struct {
	Limit     int    `json:"limit"`
	Mood      string `json:"mood,omitempty"`
	Activity  string `json:"activity,omitempty"`
	TimeOfDay string `json:"time_of_day,omitempty"`
}

// Response is the result of getRecommendations.
type Response struct {
	Recommendations []Recommendation      `json:"recommendations"`
	ProfileSummary  models.ProfileSummary `json:"profile_summary"`
	Context         Context               `json:"context"`
}

// Engine is the hybrid recommendation engine facade. It owns the profile
// store, the four candidate sources, the ranker and the feedback processor,
// and exposes the three synchronous operations the host application calls.
type Engine struct {
	profiles      *ProfileStore
	similarity    *SimilarityEngine
	collaborative *CollaborativeRecommender
	content       *ContentBasedRecommender
	contextual    *ContextualRecommender
	trending      *TrendingSource
	ranker        *HybridRanker
	feedback      *FeedbackProcessor
	scheduler     *Scheduler

	store       history.Store
	impressions ImpressionRecorder
	playWindow  int
	trendWindow time.Duration
}

// New wires the full engine from its collaborators and configuration.
// Pass a nil impressions recorder to disable CTR tracking.
func New(store history.Store, analytics history.AnalyticsSource, sink history.FeedbackSink, cacheStore cache.Store, impressions ImpressionRecorder, cfg config.EngineConfig) *Engine {
	profiles := NewProfileStore(store, analytics, cacheStore, cfg.ProfileTTL, cfg.PlayHistoryWindow)
	similarity := NewSimilarityEngine(store, cfg.PlayHistoryWindow)
	feedback := NewFeedbackProcessor(profiles, sink, cfg.DrainThreshold)

	e := &Engine{
		profiles:      profiles,
		similarity:    similarity,
		collaborative: NewCollaborativeRecommender(store, similarity, cfg.PlayHistoryWindow),
		content:       NewContentBasedRecommender(),
		contextual:    NewContextualRecommender(),
		trending:      NewTrendingSource(store, cfg.TrendingWindow),
		ranker:        NewHybridRanker(),
		feedback:      feedback,
		store:         store,
		impressions:   impressions,
		playWindow:    cfg.PlayHistoryWindow,
		trendWindow:   cfg.TrendingWindow,
	}
	e.scheduler = NewScheduler(feedback, profiles, cfg.DrainInterval, cfg.RefreshInterval)
	return e
}

// Start launches the background drain and refresh jobs.
func (e *Engine) Start() {
	e.scheduler.Start()
}

// Stop cancels background jobs and flushes queued feedback.
func (e *Engine) Stop() {
	e.scheduler.Stop()
}

// Profiles exposes the profile store (used by introspection handlers).
func (e *Engine) Profiles() *ProfileStore {
	return e.profiles
}

// Similarity exposes the similarity engine.
func (e *Engine) Similarity() *SimilarityEngine {
	return e.similarity
}

// GetRecommendations produces ranked, explainable recommendations.
// It never fails hard for a valid user: upstream errors degrade source by
// source, and an all-empty merge falls back to flat popularity picks. An
// empty result means no data exists anywhere.
func (e *Engine) GetRecommendations(ctx context.Context, userID string, opts Options) (*Response, error) {
	start := time.Now()

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	callerContext := Context{Mood: opts.Mood, Activity: opts.Activity, TimeOfDay: opts.TimeOfDay}
	resolvedContext := e.contextual.Resolve(callerContext)

	profile, err := e.profiles.GetProfile(ctx, userID)
	if err != nil {
		// Degrade to a cold-start profile; content scoring turns neutral.
		logger.Warn("Profile unavailable, serving cold-start",
			logger.WithUserID(userID), zap.Error(err))
		profile = models.NewColdStartProfile(userID)
	}

	plays, err := e.store.GetRecentPlays(ctx, userID, e.playWindow)
	if err != nil {
		logger.Warn("Play history unavailable",
			logger.WithUserID(userID), zap.Error(err))
		plays = nil
	}
	playedSet := trackSet(plays)

	pool, err := e.buildCandidatePool(ctx, playedSet)
	if err != nil {
		logger.Warn("Candidate pool unavailable",
			logger.WithUserID(userID), zap.Error(err))
		pool = nil
	}

	// Fan out the four sources. Each is read-only against its inputs and
	// observes ctx so an abandoned request stops early.
	candidatesBySource := make(map[Source][]Candidate, 4)
	var mu sync.Mutex
	var wg sync.WaitGroup

	collect := func(source Source, fn func() ([]Candidate, error)) {
		defer wg.Done()
		candidates, err := fn()
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("Recommendation source degraded",
					logger.WithSource(string(source)), logger.WithUserID(userID), zap.Error(err))
			}
			metrics.Get().SourceErrors.WithLabelValues(string(source)).Inc()
			return
		}
		metrics.Get().SourceCandidates.WithLabelValues(string(source)).Add(float64(len(candidates)))
		mu.Lock()
		candidatesBySource[source] = candidates
		mu.Unlock()
	}

	wg.Add(4)
	go collect(SourceCollaborative, func() ([]Candidate, error) {
		return e.collaborative.Recommend(ctx, userID, playedSet, plays, limit)
	})
	go collect(SourceContent, func() ([]Candidate, error) {
		return e.content.Recommend(profile, pool, limit), nil
	})
	go collect(SourceContextual, func() ([]Candidate, error) {
		return e.contextual.Recommend(resolvedContext, pool, limit), nil
	})
	go collect(SourceTrending, func() ([]Candidate, error) {
		return e.trending.Recommend(ctx, playedSet, limit)
	})
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if empty(candidatesBySource) {
		candidatesBySource[SourceFallback] = e.fallbackCandidates(pool, limit)
	}

	ranked := e.ranker.Rank(candidatesBySource, profile, callerContext, limit)

	for _, rec := range ranked {
		metrics.Get().RecommendationsServed.WithLabelValues(string(rec.Source)).Inc()
	}
	contextLabel := "none"
	if !callerContext.Empty() {
		contextLabel = "tagged"
	}
	metrics.Get().RecommendationDuration.WithLabelValues(contextLabel).Observe(time.Since(start).Seconds())

	e.trackImpressions(userID, ranked)

	return &Response{
		Recommendations: ranked,
		ProfileSummary:  profile.Summary(),
		Context:         resolvedContext,
	}, nil
}

// SubmitFeedback validates and processes one feedback event: durable record,
// immediate profile nudge, batch queue.
func (e *Engine) SubmitFeedback(ctx context.Context, userID string, event *models.FeedbackEvent) error {
	event.UserID = userID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	// Resolve the feature snapshot when the caller didn't supply one so the
	// immediate nudge has something to work with.
	if len(event.AudioFeatures) == 0 && event.TrackID != "" {
		tracks, err := e.store.GetTrackAudioFeatures(ctx, []string{event.TrackID})
		if err == nil && len(tracks) == 1 {
			event.AudioFeatures = tracks[0].Features()
		}
	}

	return e.feedback.Submit(ctx, event)
}

// GetUserProfile returns the user's profile for read-only introspection.
func (e *Engine) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return e.profiles.GetProfile(ctx, userID)
}

// buildCandidatePool assembles the shared pool the content and contextual
// sources score: the trending window's tracks minus already-played ones,
// fetched once per request.
func (e *Engine) buildCandidatePool(ctx context.Context, playedSet map[string]struct{}) ([]models.Track, error) {
	rows, err := e.store.GetTrendingTracks(ctx, e.trendWindow, candidatePool)
	if err != nil {
		return nil, err
	}
	trackIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		if _, played := playedSet[row.TrackID]; played {
			continue
		}
		trackIDs = append(trackIDs, row.TrackID)
	}
	return e.store.GetTrackAudioFeatures(ctx, trackIDs)
}

// fallbackCandidates turns the pool into flat popularity picks so the
// engine still answers when every source came back empty.
func (e *Engine) fallbackCandidates(pool []models.Track, limit int) []Candidate {
	out := make([]Candidate, 0, limit)
	for i := range pool {
		if len(out) == limit {
			break
		}
		track := &pool[i]
		out = append(out, Candidate{
			TrackID:       track.ID,
			TrackName:     track.Name,
			ArtistName:    track.Artist,
			RawScore:      trendingBaseScore,
			Source:        SourceFallback,
			SourceWeight:  SourceFallback.Weight(),
			AudioFeatures: track.Features(),
		})
	}
	return out
}

func (e *Engine) trackImpressions(userID string, ranked []Recommendation) {
	if e.impressions == nil || len(ranked) == 0 {
		return
	}
	impressions := make([]models.RecommendationImpression, 0, len(ranked))
	for i, rec := range ranked {
		score := rec.FinalScore
		reason := ""
		if len(rec.Rationale) > 0 {
			reason = rec.Rationale[0]
		}
		impressions = append(impressions, models.RecommendationImpression{
			UserID:    userID,
			TrackID:   rec.TrackID,
			Source:    string(rec.Source),
			Position:  i,
			Score:     &score,
			Rationale: &reason,
		})
	}

	// Async write - don't block the request.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.impressions.RecordImpressions(ctx, impressions); err != nil {
			logger.Warn("Failed to track impressions",
				logger.WithUserID(userID), zap.Error(err))
		}
	}()
}

func empty(candidatesBySource map[Source][]Candidate) bool {
	for _, candidates := range candidatesBySource {
		if len(candidates) > 0 {
			return false
		}
	}
	return true
}
