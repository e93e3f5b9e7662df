package models

import (
	"time"

	"github.com/primoscope/echotune/internal/errors"
)

// FeedbackAction is a discrete user reaction to a recommended track.
type FeedbackAction string

const (
	ActionLike     FeedbackAction = "like"
	ActionDislike  FeedbackAction = "dislike"
	ActionSkip     FeedbackAction = "skip"
	ActionSave     FeedbackAction = "save"
	ActionPlayFull FeedbackAction = "play_full"
)

// ActionWeights maps each feedback action to its preference-nudge weight.
var ActionWeights = map[FeedbackAction]float64{
	ActionLike:     1.0,
	ActionSave:     1.2,
	ActionPlayFull: 0.8,
	ActionSkip:     -0.5,
	ActionDislike:  -1.0,
}

// Weight returns the nudge weight for the action, or 0 for unknown actions.
func (a FeedbackAction) Weight() float64 {
	return ActionWeights[a]
}

// Valid reports whether the action is one of the known values.
func (a FeedbackAction) Valid() bool {
	_, ok := ActionWeights[a]
	return ok
}

// FeedbackEvent is a user reaction created by the caller, consumed exactly
// once by the FeedbackProcessor, and durably recorded through the sink.
type FeedbackEvent struct {
	ID      string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID  string         `gorm:"not null;index" json:"user_id"`
	TrackID string         `gorm:"not null;index" json:"track_id"`
	Action  FeedbackAction `gorm:"not null" json:"action"`

	// Snapshot of the track features at feedback time, used for the
	// immediate profile nudge without another catalog read.
	AudioFeatures AudioFeatures `gorm:"type:jsonb;serializer:json" json:"audio_features,omitempty"`

	OccurredAt time.Time `gorm:"not null;index" json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName overrides the default table name
func (FeedbackEvent) TableName() string {
	return "feedback_events"
}

// Validate rejects events missing required fields at the submitFeedback
// boundary. Returns a structured validation error, never silently drops.
func (e *FeedbackEvent) Validate() error {
	if e.UserID == "" {
		return errors.InvalidFeedback("user_id", "user_id is required")
	}
	if e.TrackID == "" {
		return errors.InvalidFeedback("track_id", "track_id is required")
	}
	if !e.Action.Valid() {
		return errors.InvalidFeedback("action", "action must be one of like, dislike, skip, save, play_full")
	}
	if e.OccurredAt.IsZero() {
		return errors.InvalidFeedback("occurred_at", "occurred_at is required")
	}
	return nil
}
