package models

import (
	"time"
)

// PlayEvent records a single listen. Append-only; the engine reads a bounded
// recent window per user and never mutates rows.
type PlayEvent struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID  string `gorm:"not null;index:idx_play_events_user_played" json:"user_id"`
	TrackID string `gorm:"not null;index" json:"track_id"`
	Track   Track  `gorm:"foreignKey:TrackID" json:"track,omitempty"`

	PlayedAt        time.Time `gorm:"not null;index:idx_play_events_user_played,sort:desc" json:"played_at"`
	CompletionRatio *float64  `json:"completion_ratio,omitempty"` // 0-1, nil when unknown

	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the default table name
func (PlayEvent) TableName() string {
	return "play_events"
}
