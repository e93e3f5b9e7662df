package engine

import (
	"context"
	"time"

	"github.com/primoscope/echotune/internal/logger"
	"github.com/primoscope/echotune/internal/metrics"
	"go.uber.org/zap"
)

// Scheduler runs the engine's two cooperative background jobs: the periodic
// feedback drain and the hourly full profile cache refresh. Both are
// independently cancellable through Stop and panic-isolated so a bad cycle
// cannot kill the process.
type Scheduler struct {
	feedback *FeedbackProcessor
	profiles *ProfileStore

	drainInterval   time.Duration
	refreshInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler for the drain and refresh jobs.
func NewScheduler(feedback *FeedbackProcessor, profiles *ProfileStore, drainInterval, refreshInterval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		feedback:        feedback,
		profiles:        profiles,
		drainInterval:   drainInterval,
		refreshInterval: refreshInterval,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Start launches both background jobs.
func (s *Scheduler) Start() {
	logger.Log.Info("Starting engine scheduler",
		zap.Duration("drain_interval", s.drainInterval),
		zap.Duration("refresh_interval", s.refreshInterval),
	)
	go s.run(s.drainInterval, "feedback_drain", func(ctx context.Context) {
		s.feedback.Drain(ctx)
	})
	go s.run(s.refreshInterval, "profile_refresh", func(ctx context.Context) {
		if err := s.profiles.InvalidateAll(ctx); err != nil {
			logger.Error("Full profile cache refresh failed", zap.Error(err))
			return
		}
		metrics.Get().ProfileRecomputes.WithLabelValues("refresh").Inc()
	})
}

// Stop cancels both jobs and runs one final drain so queued feedback is not
// lost on shutdown.
func (s *Scheduler) Stop() {
	logger.Log.Info("Stopping engine scheduler")
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.feedback.Drain(ctx)
}

func (s *Scheduler) run(interval time.Duration, name string, job func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.safeRun(name, job)
		case <-s.ctx.Done():
			return
		}
	}
}

// safeRun isolates a job cycle so a panic only loses that cycle.
func (s *Scheduler) safeRun(name string, job func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Background job panicked",
				zap.String("job", name), zap.Any("panic", r))
		}
	}()
	job(s.ctx)
}
