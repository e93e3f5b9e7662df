package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/primoscope/echotune/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedCatalog creates a small catalog with plays from a handful of users so
// trending and collaborative sources have data to work with.
func seedCatalog(db *gorm.DB, t *testing.T) []models.Track {
	t.Helper()
	now := time.Now().UTC()

	tracks := make([]models.Track, 0, 12)
	for i := 0; i < 12; i++ {
		tracks = append(tracks, makeTrack(db, t, fmt.Sprintf("song %d", i), fmt.Sprintf("artist %d", i%4), "house",
			models.AudioFeatures{
				models.FeatureEnergy:       0.4 + float64(i%6)*0.1,
				models.FeatureDanceability: 0.5,
				models.FeatureTempo:        120,
			}))
	}

	for u := 0; u < 4; u++ {
		userID := fmt.Sprintf("listener-%d", u)
		for i := 0; i < 8; i++ {
			makePlay(db, t, userID, tracks[(u+i)%len(tracks)].ID, now.Add(-time.Duration(i+1)*time.Hour))
		}
	}
	return tracks
}

func TestGetRecommendationsNewUser(t *testing.T) {
	engine, db := newTestEngine(t)
	seedCatalog(db, t)

	resp, err := engine.GetRecommendations(context.Background(), "brand-new-user", Options{Limit: 5})
	require.NoError(t, err)

	assert.LessOrEqual(t, len(resp.Recommendations), 5)
	assert.NotEmpty(t, resp.Recommendations, "trending must fill cold start")
	for _, rec := range resp.Recommendations {
		assert.Contains(t, []Source{SourceTrending, SourceFallback, SourceContextual}, rec.Source)
		assert.NotEqual(t, SourceCollaborative, rec.Source, "no neighbors exist for a user with no plays")
		assert.NotEqual(t, SourceContent, rec.Source, "an empty profile has no centroid to match")
	}
	assert.Equal(t, "brand-new-user", resp.ProfileSummary.UserID)
	assert.Equal(t, 0.0, resp.ProfileSummary.DiversityScore)
	assert.NotEmpty(t, resp.Context.TimeOfDay, "time of day derived from the clock")
}

func TestGetRecommendationsActiveUser(t *testing.T) {
	engine, db := newTestEngine(t)
	tracks := seedCatalog(db, t)
	now := time.Now().UTC()

	// Give the subject overlapping history with the seeded listeners.
	for i := 0; i < 8; i++ {
		makePlay(db, t, "subject", tracks[i].ID, now.Add(-time.Duration(i+1)*time.Hour))
	}

	resp, err := engine.GetRecommendations(context.Background(), "subject", Options{Limit: 10})
	require.NoError(t, err)

	require.NotEmpty(t, resp.Recommendations)
	seen := map[string]bool{}
	played := map[string]bool{}
	for i := 0; i < 8; i++ {
		played[tracks[i].ID] = true
	}
	for _, rec := range resp.Recommendations {
		assert.False(t, seen[rec.TrackID], "duplicate track in response")
		seen[rec.TrackID] = true
		assert.GreaterOrEqual(t, rec.FinalScore, 0.0)
		assert.LessOrEqual(t, rec.FinalScore, 1.0)
		assert.NotEmpty(t, rec.Rationale)
	}
	assert.Greater(t, resp.ProfileSummary.TotalTracks, 0)
}

func TestGetRecommendationsLimitDefaults(t *testing.T) {
	engine, db := newTestEngine(t)
	seedCatalog(db, t)

	// Zero limit falls back to the default; an absurd one is capped.
	resp, err := engine.GetRecommendations(context.Background(), "user", Options{Limit: 0})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(resp.Recommendations), defaultLimit)

	resp, err = engine.GetRecommendations(context.Background(), "user", Options{Limit: 10_000})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(resp.Recommendations), maxLimit)
}

func TestGetRecommendationsEmptySystem(t *testing.T) {
	engine, _ := newTestEngine(t)

	resp, err := engine.GetRecommendations(context.Background(), "user", Options{Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, resp.Recommendations, "no data anywhere yields an explicit empty list")
}

func TestGetRecommendationsCancelledContext(t *testing.T) {
	engine, db := newTestEngine(t)
	seedCatalog(db, t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.GetRecommendations(ctx, "user", Options{Limit: 5})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetRecommendationsContextTags(t *testing.T) {
	engine, db := newTestEngine(t)
	seedCatalog(db, t)

	resp, err := engine.GetRecommendations(context.Background(), "user", Options{
		Limit:    5,
		Mood:     "energetic",
		Activity: "workout",
	})
	require.NoError(t, err)
	assert.Equal(t, "energetic", resp.Context.Mood)
	assert.Equal(t, "workout", resp.Context.Activity)
	assert.NotEmpty(t, resp.Context.TimeOfDay)
}

func TestSubmitFeedbackResolvesFeatures(t *testing.T) {
	engine, db := newTestEngine(t)
	now := time.Now().UTC()

	track := makeTrack(db, t, "song", "artist", "house", models.AudioFeatures{models.FeatureEnergy: 0.7})
	makePlay(db, t, "user-1", track.ID, now.Add(-time.Hour))

	event := &models.FeedbackEvent{
		ID:         "fb-resolve",
		TrackID:    track.ID,
		Action:     models.ActionLike,
		OccurredAt: now,
	}
	require.NoError(t, engine.SubmitFeedback(context.Background(), "user-1", event))

	// Features were looked up from the catalog for the nudge.
	assert.NotEmpty(t, event.AudioFeatures)
	assert.Equal(t, "user-1", event.UserID)

	profile, err := engine.GetUserProfile(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Greater(t, profile.AudioFeaturePreferences[models.FeatureEnergy], 0.7)
}

func TestSubmitFeedbackInvalid(t *testing.T) {
	engine, _ := newTestEngine(t)

	err := engine.SubmitFeedback(context.Background(), "user-1", &models.FeedbackEvent{
		TrackID: "t", Action: "unknown",
	})
	assert.Error(t, err)
}

func TestGetUserProfileColdStart(t *testing.T) {
	engine, _ := newTestEngine(t)

	profile, err := engine.GetUserProfile(context.Background(), "nobody")
	require.NoError(t, err)
	assert.True(t, profile.IsColdStart())
}
