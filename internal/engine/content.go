package engine

import (
	"sort"

	"github.com/primoscope/echotune/internal/models"
)

// ContentBasedRecommender scores a candidate pool by feature-vector
// closeness to the user's preference centroid. Pure: the pool is supplied
// by the caller, so the scoring loop never does I/O.
type ContentBasedRecommender struct{}

// NewContentBasedRecommender creates a content-based source.
func NewContentBasedRecommender() *ContentBasedRecommender {
	return &ContentBasedRecommender{}
}

// Recommend scores each pool track against the profile centroid. A profile
// with no preferences yet has no centroid to match, so cold-start users get
// nothing from this source and lean on contextual and trending instead.
func (r *ContentBasedRecommender) Recommend(profile *models.UserProfile, pool []models.Track, limit int) []Candidate {
	if len(pool) == 0 || profile == nil || len(profile.AudioFeaturePreferences) == 0 {
		return []Candidate{}
	}

	out := make([]Candidate, 0, len(pool))
	for i := range pool {
		track := &pool[i]
		features := track.Features()
		out = append(out, Candidate{
			TrackID:       track.ID,
			TrackName:     track.Name,
			ArtistName:    track.Artist,
			RawScore:      featureSimilarity(profile.AudioFeaturePreferences, features),
			Source:        SourceContent,
			SourceWeight:  SourceContent.Weight(),
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
