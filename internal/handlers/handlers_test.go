package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/primoscope/echotune/internal/cache"
	"github.com/primoscope/echotune/internal/config"
	"github.com/primoscope/echotune/internal/engine"
	"github.com/primoscope/echotune/internal/history"
	"github.com/primoscope/echotune/internal/logger"
	"github.com/primoscope/echotune/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.InitializeForTesting()
	os.Exit(m.Run())
}

type testServer struct {
	db     *gorm.DB
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	// SQLite-compatible schema (the postgres migration path uses uuid defaults)
	for _, ddl := range []string{
		`CREATE TABLE tracks (
			id TEXT PRIMARY KEY, name TEXT NOT NULL, artist TEXT NOT NULL, album TEXT, genre TEXT,
			danceability REAL DEFAULT 0, energy REAL DEFAULT 0, valence REAL DEFAULT 0,
			tempo REAL DEFAULT 0, acousticness REAL DEFAULT 0, instrumentalness REAL DEFAULT 0,
			created_at DATETIME, updated_at DATETIME, deleted_at DATETIME
		)`,
		`CREATE TABLE play_events (
			id TEXT PRIMARY KEY, user_id TEXT NOT NULL, track_id TEXT NOT NULL,
			played_at DATETIME NOT NULL, completion_ratio REAL, created_at DATETIME
		)`,
		`CREATE TABLE feedback_events (
			id TEXT PRIMARY KEY, user_id TEXT NOT NULL, track_id TEXT NOT NULL, action TEXT NOT NULL,
			audio_features TEXT, occurred_at DATETIME NOT NULL, created_at DATETIME
		)`,
		`CREATE TABLE recommendation_impressions (
			id TEXT PRIMARY KEY, user_id TEXT NOT NULL, track_id TEXT NOT NULL, source TEXT NOT NULL,
			position INTEGER DEFAULT 0, clicked BOOLEAN DEFAULT FALSE, clicked_at DATETIME,
			score REAL, rationale TEXT, created_at DATETIME, updated_at DATETIME, deleted_at DATETIME
		)`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}

	store := history.NewGormStore(db)
	cacheStore := cache.NewMemory()
	t.Cleanup(func() { cacheStore.Close() })

	cfg := config.EngineConfig{
		ProfileTTL:        30 * time.Minute,
		PlayHistoryWindow: 500,
		DrainThreshold:    100,
		DrainInterval:     5 * time.Minute,
		RefreshInterval:   time.Hour,
		TrendingWindow:    7 * 24 * time.Hour,
	}
	eng := engine.New(store, store, store, cacheStore, nil, cfg)

	h := NewHandlers(eng, store)
	router := gin.New()
	router.GET("/api/v1/recommendations/:user_id", h.GetRecommendations)
	router.POST("/api/v1/feedback/:user_id", h.SubmitFeedback)
	router.GET("/api/v1/profile/:user_id", h.GetUserProfile)
	router.GET("/api/v1/analytics/ctr", h.GetSourceCTR)

	return &testServer{db: db, router: router}
}

func (s *testServer) seedListeners(t *testing.T) {
	t.Helper()
	now := time.Now().UTC()

	for i := 0; i < 10; i++ {
		track := models.Track{
			ID:     uuid.New().String(),
			Name:   fmt.Sprintf("song %d", i),
			Artist: fmt.Sprintf("artist %d", i%3),
			Genre:  models.StringArray{"house"},
			Energy: 0.4 + float64(i%6)*0.1,
			Tempo:  120,
		}
		require.NoError(t, s.db.Create(&track).Error)

		// listener-0 hears only the first half; the others hear everything,
		// so there is always something left to recommend to listener-0.
		for u := 0; u < 3; u++ {
			if u == 0 && i >= 5 {
				continue
			}
			require.NoError(t, s.db.Create(&models.PlayEvent{
				ID:       uuid.New().String(),
				UserID:   fmt.Sprintf("listener-%d", u),
				TrackID:  track.ID,
				PlayedAt: now.Add(-time.Duration(i+1) * time.Hour),
			}).Error)
		}
	}
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestGetRecommendationsEndpoint(t *testing.T) {
	server := newTestServer(t)
	server.seedListeners(t)

	w := server.do(http.MethodGet, "/api/v1/recommendations/listener-0?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		UserID          string                  `json:"user_id"`
		Recommendations []engine.Recommendation `json:"recommendations"`
		Meta            struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "listener-0", resp.UserID)
	assert.NotEmpty(t, resp.Recommendations)
	assert.LessOrEqual(t, len(resp.Recommendations), 5)
	assert.Equal(t, len(resp.Recommendations), resp.Meta.Count)
	for _, rec := range resp.Recommendations {
		assert.GreaterOrEqual(t, rec.FinalScore, 0.0)
		assert.LessOrEqual(t, rec.FinalScore, 1.0)
	}
}

func TestGetRecommendationsUnknownTagsServed(t *testing.T) {
	server := newTestServer(t)
	server.seedListeners(t)

	cases := []struct {
		name string
		path string
	}{
		{"unknown mood", "/api/v1/recommendations/listener-0?mood=furious&limit=5"},
		{"unknown activity", "/api/v1/recommendations/listener-0?activity=skydiving&limit=5"},
		{"unknown time of day", "/api/v1/recommendations/listener-0?time_of_day=brunch&limit=5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := server.do(http.MethodGet, tc.path, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Recommendations []engine.Recommendation `json:"recommendations"`
				Context         engine.Context          `json:"context"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Recommendations, "unknown tags bias nothing but never reject")
		})
	}
}

func TestGetRecommendationsUnknownMoodEchoed(t *testing.T) {
	server := newTestServer(t)
	server.seedListeners(t)

	w := server.do(http.MethodGet, "/api/v1/recommendations/listener-0?mood=furious", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Context engine.Context `json:"context"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "furious", resp.Context.Mood)
}

func TestGetRecommendationsContextTags(t *testing.T) {
	server := newTestServer(t)
	server.seedListeners(t)

	w := server.do(http.MethodGet, "/api/v1/recommendations/listener-0?mood=happy&activity=workout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Context engine.Context `json:"context"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "happy", resp.Context.Mood)
	assert.Equal(t, "workout", resp.Context.Activity)
	assert.NotEmpty(t, resp.Context.TimeOfDay)
}

func TestSubmitFeedbackEndpoint(t *testing.T) {
	server := newTestServer(t)
	server.seedListeners(t)

	var track models.Track
	require.NoError(t, server.db.First(&track).Error)

	w := server.do(http.MethodPost, "/api/v1/feedback/listener-0", map[string]interface{}{
		"id":          uuid.New().String(),
		"track_id":    track.ID,
		"action":      "like",
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])

	var count int64
	require.NoError(t, server.db.Model(&models.FeedbackEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSubmitFeedbackInvalidAction(t *testing.T) {
	server := newTestServer(t)

	w := server.do(http.MethodPost, "/api/v1/feedback/listener-0", map[string]interface{}{
		"track_id":    "some-track",
		"action":      "adore",
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_FEEDBACK_EVENT", resp.Error.Code)
}

func TestSubmitFeedbackMalformedBody(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback/u1", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProfileEndpoint(t *testing.T) {
	server := newTestServer(t)
	server.seedListeners(t)

	w := server.do(http.MethodGet, "/api/v1/profile/listener-0", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ColdStart bool               `json:"cold_start"`
		Profile   models.UserProfile `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.ColdStart)
	assert.Equal(t, "listener-0", resp.Profile.UserID)
	assert.NotEmpty(t, resp.Profile.AudioFeaturePreferences)
}

func TestGetProfileColdStartEndpoint(t *testing.T) {
	server := newTestServer(t)

	w := server.do(http.MethodGet, "/api/v1/profile/stranger", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ColdStart bool `json:"cold_start"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.ColdStart)
}

func TestGetSourceCTREndpoint(t *testing.T) {
	server := newTestServer(t)

	w := server.do(http.MethodGet, "/api/v1/analytics/ctr?days=7", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		WindowDays int                 `json:"window_days"`
		Sources    []history.SourceCTR `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.WindowDays)
	assert.Len(t, resp.Sources, 5)
}

func TestGetSourceCTRBadWindow(t *testing.T) {
	server := newTestServer(t)

	w := server.do(http.MethodGet, "/api/v1/analytics/ctr?days=400", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
