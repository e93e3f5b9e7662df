package models

import (
	"time"
)

// UserProfile is a per-user preference profile built from listening history.
// Owned exclusively by the ProfileStore; mutated only through its update
// methods and rebuilt after TTL expiry or batch feedback reconciliation.
type UserProfile struct {
	UserID string `json:"user_id"`

	// Weighted-average preference per audio feature. Values stay inside the
	// feature's domain: [0,1] for everything except tempo (BPM).
	AudioFeaturePreferences AudioFeatures `json:"audio_feature_preferences"`

	// Genre affinity scores derived from top artists.
	GenreAffinities map[string]float64 `json:"genre_affinities"`

	// Listening time histograms.
	ListeningHourHistogram [24]float64 `json:"listening_hour_histogram"`
	ListeningDayHistogram  [7]float64  `json:"listening_day_histogram"`

	// uniqueArtists / totalTracks, clamped to [0,1].
	DiversityScore float64 `json:"diversity_score"`

	TotalTracks int `json:"total_tracks"`

	// BuiltAt is when the profile was last fully rebuilt from history.
	// Feedback nudges update LastUpdated but never BuiltAt, so the cache
	// TTL keeps counting from the rebuild.
	BuiltAt time.Time `json:"built_at"`

	LastUpdated time.Time `json:"last_updated"`
}

// NewColdStartProfile returns the profile used for users with no history:
// empty preference maps and zero diversity.
func NewColdStartProfile(userID string) *UserProfile {
	now := time.Now().UTC()
	return &UserProfile{
		UserID:                  userID,
		AudioFeaturePreferences: AudioFeatures{},
		GenreAffinities:         map[string]float64{},
		DiversityScore:          0,
		BuiltAt:                 now,
		LastUpdated:             now,
	}
}

// IsColdStart reports whether the profile carries no preference signal.
func (p *UserProfile) IsColdStart() bool {
	return len(p.AudioFeaturePreferences) == 0
}

// Clone returns a deep copy so callers can't mutate cached state.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.AudioFeaturePreferences = make(AudioFeatures, len(p.AudioFeaturePreferences))
	for k, v := range p.AudioFeaturePreferences {
		out.AudioFeaturePreferences[k] = v
	}
	out.GenreAffinities = make(map[string]float64, len(p.GenreAffinities))
	for k, v := range p.GenreAffinities {
		out.GenreAffinities[k] = v
	}
	return &out
}

// ClampFeature keeps a nudged preference inside the feature's domain.
// Tempo is bounded by BPM range; everything else by [0,1].
func ClampFeature(name string, value float64) float64 {
	max := 1.0
	if name == FeatureTempo {
		max = MaxTempoBPM
	}
	if value < 0 {
		return 0
	}
	if value > max {
		return max
	}
	return value
}

// ProfileSummary is the condensed view returned alongside recommendations.
type ProfileSummary struct {
	UserID         string        `json:"user_id"`
	TopFeatures    AudioFeatures `json:"top_features"`
	DiversityScore float64       `json:"diversity_score"`
	TotalTracks    int           `json:"total_tracks"`
	LastUpdated    time.Time     `json:"last_updated"`
}

// Summary condenses the profile for API responses.
func (p *UserProfile) Summary() ProfileSummary {
	top := make(AudioFeatures, len(p.AudioFeaturePreferences))
	for k, v := range p.AudioFeaturePreferences {
		top[k] = v
	}
	return ProfileSummary{
		UserID:         p.UserID,
		TopFeatures:    top,
		DiversityScore: p.DiversityScore,
		TotalTracks:    p.TotalTracks,
		LastUpdated:    p.LastUpdated,
	}
}
