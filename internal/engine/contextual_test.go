package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/primoscope/echotune/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDerivesTimeOfDay(t *testing.T) {
	recommender := NewContextualRecommender()
	recommender.now = func() time.Time {
		return time.Date(2025, 6, 15, 9, 0, 0, 0, time.Local)
	}

	resolved := recommender.Resolve(Context{})
	assert.Equal(t, "morning", resolved.TimeOfDay)

	// Supplied value is kept.
	resolved = recommender.Resolve(Context{TimeOfDay: "night"})
	assert.Equal(t, "night", resolved.TimeOfDay)
}

func TestTimeOfDayBuckets(t *testing.T) {
	cases := map[int]string{
		7:  "morning",
		13: "afternoon",
		19: "evening",
		23: "night",
		3:  "night",
	}
	for hour, want := range cases {
		got := timeOfDay(time.Date(2025, 6, 15, hour, 0, 0, 0, time.UTC))
		assert.Equal(t, want, got, "hour %d", hour)
	}
}

func TestTargetVectorMergesTags(t *testing.T) {
	recommender := NewContextualRecommender()

	target := recommender.TargetVector(Context{Mood: "energetic", Activity: "workout"})

	// Energy named by both tags: averaged.
	assert.InDelta(t, (0.95+0.9)/2, target[models.FeatureEnergy], 1e-9)
	// Tempo named only by the activity.
	assert.InDelta(t, 140, target[models.FeatureTempo], 1e-9)
	// Valence named only by the mood.
	assert.InDelta(t, 0.7, target[models.FeatureValence], 1e-9)
}

func TestTargetVectorUnknownTagIsNeutral(t *testing.T) {
	recommender := NewContextualRecommender()

	target := recommender.TargetVector(Context{Mood: "confused"})
	assert.Equal(t, defaultTarget[models.FeatureEnergy], target[models.FeatureEnergy])
	assert.Equal(t, defaultTarget[models.FeatureValence], target[models.FeatureValence])
}

func TestContextualRecommendWorkout(t *testing.T) {
	recommender := NewContextualRecommender()

	pool := []models.Track{
		{
			ID: uuid.New().String(), Name: "pump it", Artist: "dj",
			Energy: 0.9, Danceability: 0.85, Tempo: 140, Instrumentalness: 0.3, Acousticness: 0.1,
		},
		{
			ID: uuid.New().String(), Name: "lullaby", Artist: "quiet",
			Energy: 0.1, Danceability: 0.1, Tempo: 65, Instrumentalness: 0.9, Acousticness: 0.95,
		},
	}

	candidates := recommender.Recommend(Context{Activity: "workout", TimeOfDay: "morning"}, pool, 10)
	require.Len(t, candidates, 2)
	assert.Equal(t, "pump it", candidates[0].TrackName)
	assert.Greater(t, candidates[0].RawScore, candidates[1].RawScore)
}

func TestContextualRecommendEmptyPool(t *testing.T) {
	recommender := NewContextualRecommender()
	candidates := recommender.Recommend(Context{Mood: "happy"}, nil, 10)
	assert.Empty(t, candidates)
}
