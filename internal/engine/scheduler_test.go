package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primoscope/echotune/internal/models"
)

func TestSchedulerDrainsOnTick(t *testing.T) {
	processor, _ := newTestFeedback(t, 100)
	scheduler := NewScheduler(processor, processor.profiles, 20*time.Millisecond, time.Hour)

	event := &models.FeedbackEvent{
		UserID:     "scheduler-user",
		TrackID:    "scheduler-track",
		Action:     models.ActionLike,
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, processor.Submit(context.Background(), event))
	require.Equal(t, 1, processor.QueueDepth())

	scheduler.Start()
	defer scheduler.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for processor.QueueDepth() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 0, processor.QueueDepth())
}

func TestSchedulerStopFlushesQueue(t *testing.T) {
	processor, _ := newTestFeedback(t, 100)
	scheduler := NewScheduler(processor, processor.profiles, time.Hour, time.Hour)
	scheduler.Start()

	event := &models.FeedbackEvent{
		UserID:     "shutdown-user",
		TrackID:    "shutdown-track",
		Action:     models.ActionSave,
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, processor.Submit(context.Background(), event))
	require.Equal(t, 1, processor.QueueDepth())

	scheduler.Stop()
	assert.Equal(t, 0, processor.QueueDepth())
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	processor, _ := newTestFeedback(t, 100)
	scheduler := NewScheduler(processor, processor.profiles, time.Hour, time.Hour)
	scheduler.Start()
	scheduler.Stop()
	scheduler.Stop()
}
