package engine

import (
	"sort"
	"time"

	"github.com/primoscope/echotune/internal/models"
)

// Mood target vectors: valence, energy, danceability, acousticness.
var moodTargets = map[string]models.AudioFeatures{
	"happy": {
		models.FeatureValence:      0.9,
		models.FeatureEnergy:       0.7,
		models.FeatureDanceability: 0.7,
		models.FeatureAcousticness: 0.2,
	},
	"sad": {
		models.FeatureValence:      0.2,
		models.FeatureEnergy:       0.3,
		models.FeatureDanceability: 0.3,
		models.FeatureAcousticness: 0.7,
	},
	"energetic": {
		models.FeatureValence:      0.7,
		models.FeatureEnergy:       0.95,
		models.FeatureDanceability: 0.8,
		models.FeatureAcousticness: 0.1,
	},
	"calm": {
		models.FeatureValence:      0.5,
		models.FeatureEnergy:       0.2,
		models.FeatureDanceability: 0.3,
		models.FeatureAcousticness: 0.8,
	},
	"romantic": {
		models.FeatureValence:      0.6,
		models.FeatureEnergy:       0.4,
		models.FeatureDanceability: 0.5,
		models.FeatureAcousticness: 0.6,
	},
}

// Activity target vectors: energy, danceability, tempo (BPM),
// instrumentalness, acousticness.
var activityTargets = map[string]models.AudioFeatures{
	"workout": {
		models.FeatureEnergy:           0.9,
		models.FeatureDanceability:     0.8,
		models.FeatureTempo:            140,
		models.FeatureInstrumentalness: 0.3,
		models.FeatureAcousticness:     0.1,
	},
	"study": {
		models.FeatureEnergy:           0.3,
		models.FeatureDanceability:     0.2,
		models.FeatureTempo:            90,
		models.FeatureInstrumentalness: 0.8,
		models.FeatureAcousticness:     0.6,
	},
	"sleep": {
		models.FeatureEnergy:           0.1,
		models.FeatureDanceability:     0.1,
		models.FeatureTempo:            70,
		models.FeatureInstrumentalness: 0.9,
		models.FeatureAcousticness:     0.9,
	},
	"party": {
		models.FeatureEnergy:           0.9,
		models.FeatureDanceability:     0.95,
		models.FeatureTempo:            125,
		models.FeatureInstrumentalness: 0.1,
		models.FeatureAcousticness:     0.1,
	},
	"commute": {
		models.FeatureEnergy:           0.6,
		models.FeatureDanceability:     0.5,
		models.FeatureTempo:            110,
		models.FeatureInstrumentalness: 0.4,
		models.FeatureAcousticness:     0.3,
	},
}

// Time-of-day target vectors.
var timeOfDayTargets = map[string]models.AudioFeatures{
	"morning": {
		models.FeatureEnergy:       0.6,
		models.FeatureValence:      0.7,
		models.FeatureAcousticness: 0.4,
	},
	"afternoon": {
		models.FeatureEnergy:       0.7,
		models.FeatureValence:      0.6,
		models.FeatureDanceability: 0.6,
	},
	"evening": {
		models.FeatureEnergy:       0.5,
		models.FeatureValence:      0.5,
		models.FeatureAcousticness: 0.5,
	},
	"night": {
		models.FeatureEnergy:           0.3,
		models.FeatureAcousticness:     0.7,
		models.FeatureInstrumentalness: 0.6,
	},
}

// defaultTarget is the neutral mapping for unknown mood/activity tags.
// Unknown tags never error; they just stop biasing the match.
var defaultTarget = models.AudioFeatures{
	models.FeatureValence:      0.5,
	models.FeatureEnergy:       0.5,
	models.FeatureDanceability: 0.5,
	models.FeatureAcousticness: 0.5,
}

// ContextualRecommender maps mood/activity/time-of-day tags to a target
// feature vector and matches it against a supplied candidate pool.
type ContextualRecommender struct {
	now func() time.Time
}

// NewContextualRecommender creates a contextual source using the local clock
// for time-of-day derivation.
func NewContextualRecommender() *ContextualRecommender {
	return &ContextualRecommender{now: time.Now}
}

// Resolve fills in TimeOfDay from the clock when the caller omitted it.
func (r *ContextualRecommender) Resolve(reqContext Context) Context {
	if reqContext.TimeOfDay == "" {
		reqContext.TimeOfDay = timeOfDay(r.now())
	}
	return reqContext
}

// timeOfDay buckets an instant: 06-12 morning, 12-18 afternoon,
// 18-22 evening, else night.
func timeOfDay(t time.Time) string {
	switch hour := t.Hour(); {
	case hour >= 6 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 18:
		return "afternoon"
	case hour >= 18 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

// TargetVector merges the present tags' lookup vectors, averaging features
// named by more than one tag.
func (r *ContextualRecommender) TargetVector(reqContext Context) models.AudioFeatures {
	sums := map[string]float64{}
	counts := map[string]int{}

	merge := func(features models.AudioFeatures) {
		for name, value := range features {
			sums[name] += value
			counts[name]++
		}
	}

	if reqContext.Mood != "" {
		if target, ok := moodTargets[reqContext.Mood]; ok {
			merge(target)
		} else {
			merge(defaultTarget)
		}
	}
	if reqContext.Activity != "" {
		if target, ok := activityTargets[reqContext.Activity]; ok {
			merge(target)
		} else {
			merge(defaultTarget)
		}
	}
	if reqContext.TimeOfDay != "" {
		if target, ok := timeOfDayTargets[reqContext.TimeOfDay]; ok {
			merge(target)
		}
	}

	target := make(models.AudioFeatures, len(sums))
	for name, sum := range sums {
		target[name] = sum / float64(counts[name])
	}
	return target
}

// Recommend matches the context target vector against the candidate pool
// using the same feature-similarity scoring as the content source.
func (r *ContextualRecommender) Recommend(reqContext Context, pool []models.Track, limit int) []Candidate {
	if len(pool) == 0 {
		return []Candidate{}
	}

	target := r.TargetVector(r.Resolve(reqContext))

	out := make([]Candidate, 0, len(pool))
	for i := range pool {
		track := &pool[i]
		features := track.Features()
		out = append(out, Candidate{
			TrackID:       track.ID,
			TrackName:     track.Name,
			ArtistName:    track.Artist,
			RawScore:      featureSimilarity(target, features),
			Source:        SourceContextual,
			SourceWeight:  SourceContextual.Weight(),
			AudioFeatures: features,
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
	return out
}
