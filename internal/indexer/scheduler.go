package indexer

import (
	"context"
	"time"

	"fqindex/internal/logging"
	"fqindex/internal/metrics"
)

// Refresher is the part of Indexer driven by the Scheduler.
type Refresher interface {
	Refresh(ctx context.Context, since time.Time) error
	Force(ctx context.Context) error
}

// Scheduler drives refresh cycles on a fixed polling interval.
type Scheduler struct {
	refresher Refresher
	interval  time.Duration
	window    time.Duration
	now       func() time.Time
}

// NewScheduler creates a scheduler that refreshes every interval, rescanning
// subtrees modified within window.
func NewScheduler(r Refresher, interval, window time.Duration) *Scheduler {
	return &Scheduler{
		refresher: r,
		interval:  interval,
		window:    window,
		now:       time.Now,
	}
}

// Run loops until ctx is cancelled. The first cycle fires after one
// interval. A failed cycle is logged and the loop waits for the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	logging.Info("Starting scheduled refresh (interval: %v, window: %v)", s.interval, s.window)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.SchedulerTicksTotal.Inc()
			since := s.now().Add(-s.window)
			if err := s.refresher.Refresh(ctx, since); err != nil {
				if ctx.Err() != nil {
					logging.Info("Scheduled refresh interrupted")
					return nil
				}
				metrics.SchedulerCycleFailures.Inc()
				logging.Error("Scheduled refresh failed: %v", err)
			}
		case <-ctx.Done():
			logging.Info("Scheduled refresh stopped")
			return nil
		}
	}
}

// RunOnce runs one full refresh synchronously and returns its error.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.refresher.Force(ctx)
}
