package engine

import (
	"context"
	"sync"

	"github.com/primoscope/echotune/internal/history"
	"github.com/primoscope/echotune/internal/logger"
	"github.com/primoscope/echotune/internal/metrics"
	"github.com/primoscope/echotune/internal/models"
	"go.uber.org/zap"
)

// FeedbackProcessor ingests user feedback: each event gets an immediate
// incremental profile nudge and joins an in-memory queue that is drained in
// batches (size threshold here, interval via the scheduler) into full
// per-user profile recomputes.
type FeedbackProcessor struct {
	profiles *ProfileStore
	sink     history.FeedbackSink

	mu             sync.Mutex
	queue          []*models.FeedbackEvent
	drainThreshold int
}

// NewFeedbackProcessor creates a processor draining at the given queue size.
func NewFeedbackProcessor(profiles *ProfileStore, sink history.FeedbackSink, drainThreshold int) *FeedbackProcessor {
	return &FeedbackProcessor{
		profiles:       profiles,
		sink:           sink,
		drainThreshold: drainThreshold,
	}
}

// Submit validates, durably records and applies one feedback event, then
// enqueues it for batch reconciliation. Reaching the size threshold drains
// synchronously, so the recompute lands before the caller's next read.
func (p *FeedbackProcessor) Submit(ctx context.Context, event *models.FeedbackEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	// Durable record first; a sink outage degrades to in-memory processing.
	if err := p.sink.RecordFeedback(ctx, event); err != nil {
		logger.Warn("Feedback sink unavailable, event processed in-memory only",
			logger.WithUserID(event.UserID), logger.WithTrackID(event.TrackID), zap.Error(err))
	}

	if err := p.profiles.ApplyFeedbackDelta(ctx, event.UserID, event); err != nil {
		return err
	}

	metrics.Get().FeedbackEventsTotal.WithLabelValues(string(event.Action)).Inc()

	p.mu.Lock()
	p.queue = append(p.queue, event)
	depth := len(p.queue)
	p.mu.Unlock()
	metrics.Get().FeedbackQueueDepth.Set(float64(depth))

	if depth >= p.drainThreshold {
		p.Drain(ctx)
	}
	return nil
}

// QueueDepth returns the number of events awaiting the next drain.
func (p *FeedbackProcessor) QueueDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Drain swaps the queue out and recomputes profiles for every affected user.
// One user's bad data never halts the others: failures are logged per-user.
func (p *FeedbackProcessor) Drain(ctx context.Context) {
	p.mu.Lock()
	if len(p.queue) == 0 {
		p.mu.Unlock()
		return
	}
	drained := p.queue
	p.queue = nil
	p.mu.Unlock()
	metrics.Get().FeedbackQueueDepth.Set(0)

	users := make(map[string]int)
	for _, event := range drained {
		users[event.UserID]++
	}

	for userID, count := range users {
		if err := ctx.Err(); err != nil {
			logger.Warn("Feedback drain interrupted", zap.Error(err))
			return
		}
		if err := p.profiles.Recompute(ctx, userID); err != nil {
			logger.Error("Profile recompute failed during drain",
				logger.WithUserID(userID), zap.Int("events", count), zap.Error(err))
			continue
		}
		metrics.Get().ProfileRecomputes.WithLabelValues("drain").Inc()
	}
	metrics.Get().DrainCyclesTotal.Inc()

	logger.Log.Debug("Feedback queue drained",
		zap.Int("events", len(drained)),
		zap.Int("users", len(users)),
	)
}
