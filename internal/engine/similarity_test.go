package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/primoscope/echotune/internal/history"
	"github.com/primoscope/echotune/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareSymmetry(t *testing.T) {
	engine := NewSimilarityEngine(nil, 500)
	now := time.Now()

	var playsA, playsB []models.PlayEvent
	for i := 0; i < 10; i++ {
		playsA = append(playsA, playAt("a", fmt.Sprintf("track-%d", i), now.Add(-time.Duration(i)*time.Hour)))
	}
	// B shares tracks 0-4 and has 5 of its own
	for i := 0; i < 5; i++ {
		playsB = append(playsB, playAt("b", fmt.Sprintf("track-%d", i), now.Add(-time.Duration(i)*time.Hour)))
	}
	for i := 10; i < 15; i++ {
		playsB = append(playsB, playAt("b", fmt.Sprintf("track-%d", i), now.Add(-time.Duration(i)*time.Hour)))
	}

	ab := engine.Compare("a", playsA, "b", playsB)
	ba := engine.Compare("b", playsB, "a", playsA)

	assert.Equal(t, ab.Score, ba.Score)
	assert.Equal(t, ab.CommonTrackCount, ba.CommonTrackCount)
	assert.Equal(t, 5, ab.CommonTrackCount)
	assert.GreaterOrEqual(t, ab.Score, 0.0)
	assert.LessOrEqual(t, ab.Score, 1.0)
}

func TestCompareZeroPlays(t *testing.T) {
	engine := NewSimilarityEngine(nil, 500)
	plays := []models.PlayEvent{playAt("a", "track-1", time.Now())}

	score := engine.Compare("a", plays, "b", nil)
	assert.Equal(t, 0.0, score.Score)
	assert.Equal(t, 0, score.CommonTrackCount)

	score = engine.Compare("a", nil, "b", nil)
	assert.Equal(t, 0.0, score.Score)
}

func TestCompareIdenticalUsers(t *testing.T) {
	engine := NewSimilarityEngine(nil, 500)
	now := time.Now()

	var plays []models.PlayEvent
	for i := 0; i < 10; i++ {
		plays = append(plays, playAt("a", fmt.Sprintf("track-%d", i), now.Add(-time.Duration(i)*time.Hour)))
	}

	score := engine.Compare("a", plays, "b", plays)
	// Jaccard 1, hour cosine 1, frequency ratio 1
	assert.InDelta(t, 1.0, score.Score, 1e-9)
}

func TestCompareJaccardDominates(t *testing.T) {
	engine := NewSimilarityEngine(nil, 500)
	now := time.Now()

	// Same listening hours and frequency but disjoint track sets: the
	// pattern term alone must not clear the neighbor threshold by much.
	var playsA, playsB []models.PlayEvent
	for i := 0; i < 10; i++ {
		playsA = append(playsA, playAt("a", fmt.Sprintf("a-track-%d", i), now.Add(-time.Duration(i)*24*time.Hour)))
		playsB = append(playsB, playAt("b", fmt.Sprintf("b-track-%d", i), now.Add(-time.Duration(i)*24*time.Hour)))
	}

	score := engine.Compare("a", playsA, "b", playsB)
	assert.Equal(t, 0, score.CommonTrackCount)
	// 0.7*0 + 0.3*pattern, pattern <= 1
	assert.LessOrEqual(t, score.Score, 0.3+1e-9)
}

func TestSimilarityFetchesFromStore(t *testing.T) {
	db := setupTestDB(t)
	store := history.NewGormStore(db)
	engine := NewSimilarityEngine(store, 500)
	now := time.Now().UTC()

	tracks := make([]models.Track, 0, 10)
	for i := 0; i < 10; i++ {
		tracks = append(tracks, makeTrack(db, t, fmt.Sprintf("song %d", i), "artist", "house", models.AudioFeatures{
			models.FeatureEnergy: 0.5,
		}))
	}

	for i := 0; i < 10; i++ {
		makePlay(db, t, "user-a", tracks[i].ID, now.Add(-time.Duration(i)*time.Hour))
	}
	for i := 0; i < 7; i++ {
		makePlay(db, t, "user-b", tracks[i].ID, now.Add(-time.Duration(i)*time.Hour))
	}

	score, err := engine.Similarity(context.Background(), "user-a", "user-b")
	require.NoError(t, err)
	assert.Equal(t, 7, score.CommonTrackCount)
	assert.Greater(t, score.Score, neighborSimilarityThreshold)
}
