package models

import (
	"time"

	"gorm.io/gorm"
)

// RecommendationImpression tracks when a recommendation is shown to a user.
// Used for CTR (Click-Through Rate) tracking per source.
type RecommendationImpression struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID  string `gorm:"not null;index:idx_impressions_user_created" json:"user_id"`
	TrackID string `gorm:"not null;index" json:"track_id"`

	// Recommendation context
	Source   string `gorm:"not null;index:idx_impressions_source_created" json:"source"` // collaborative, content, contextual, trending, fallback
	Position int    `gorm:"not null" json:"position"`                                    // Position in the ranked list (0-based)

	// Tracking
	Clicked   bool       `gorm:"default:false;index" json:"clicked"`
	ClickedAt *time.Time `json:"clicked_at,omitempty"`

	// Metadata for analysis
	Score     *float64 `json:"score,omitempty"`
	Rationale *string  `json:"rationale,omitempty"`

	// GORM fields
	CreatedAt time.Time      `gorm:"index:idx_impressions_user_created,idx_impressions_source_created" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default table name
func (RecommendationImpression) TableName() string {
	return "recommendation_impressions"
}
