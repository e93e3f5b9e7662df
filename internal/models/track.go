package models

import (
	"time"

	"gorm.io/gorm"
)

// Audio feature names shared across tracks, profiles and context targets.
const (
	FeatureDanceability     = "danceability"
	FeatureEnergy           = "energy"
	FeatureValence          = "valence"
	FeatureTempo            = "tempo"
	FeatureAcousticness     = "acousticness"
	FeatureInstrumentalness = "instrumentalness"
)

// MaxTempoBPM is the normalization ceiling for tempo. All other features
// already live in [0,1]; tempo is divided by this and clamped before any
// cross-feature comparison.
const MaxTempoBPM = 200.0

// AudioFeatures is a named feature vector for a track or a preference target.
type AudioFeatures map[string]float64

// Normalized returns a copy with tempo rescaled into [0,1].
// Features outside [0,1] after rescaling are clamped.
func (f AudioFeatures) Normalized() AudioFeatures {
	out := make(AudioFeatures, len(f))
	for name, value := range f {
		if name == FeatureTempo {
			value = value / MaxTempoBPM
		}
		if value < 0 {
			value = 0
		}
		if value > 1 {
			value = 1
		}
		out[name] = value
	}
	return out
}

// Track represents an immutable catalog entry with its audio feature vector.
// IDs come from the upstream catalog, so no UUID default here.
type Track struct {
	ID     string `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"not null" json:"name"`
	Artist string `gorm:"not null;index" json:"artist"`
	Album  string `json:"album"`

	Genre StringArray `gorm:"type:text" json:"genre"`

	// Audio features (0-1 ranges except tempo in BPM)
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default table name
func (Track) TableName() string {
	return "tracks"
}

// Features returns the track's audio feature vector in map form.
func (t *Track) Features() AudioFeatures {
	return AudioFeatures{
		FeatureDanceability:     t.Danceability,
		FeatureEnergy:           t.Energy,
		FeatureValence:          t.Valence,
		FeatureTempo:            t.Tempo,
		FeatureAcousticness:     t.Acousticness,
		FeatureInstrumentalness: t.Instrumentalness,
	}
}
