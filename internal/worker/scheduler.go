// Package worker runs background jobs on a fixed schedule.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Worker defines the common contract for all background workers
type Worker interface {
	Start(ctx context.Context) error
	Stop()
	Name() string
}

// RunFunc is one scheduled job invocation.
type RunFunc func(ctx context.Context) error

// Scheduler re-invokes a job at a fixed interval, starting with an
// immediate run. A failing run is logged and does not stop the schedule.
type Scheduler struct {
	name     string
	interval time.Duration
	run      RunFunc
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a named interval scheduler for the given job.
func NewScheduler(name string, interval time.Duration, run RunFunc, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		name:     name,
		interval: interval,
		run:      run,
		logger:   logger,
	}
}

// Start launches the schedule loop. It returns immediately; the loop
// stops when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.invoke(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.invoke(ctx)
			}
		}
	}()

	s.logger.Info("Scheduler started",
		zap.String("name", s.name),
		zap.Duration("interval", s.interval))
	return nil
}

// Stop cancels the schedule loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Scheduler stopped", zap.String("name", s.name))
}

// Name returns the scheduler's job name.
func (s *Scheduler) Name() string {
	return s.name
}

func (s *Scheduler) invoke(ctx context.Context) {
	if err := s.run(ctx); err != nil {
		s.logger.Error("Scheduled run failed",
			zap.String("name", s.name),
			zap.Error(err))
	}
}

// Verify interface compliance
var _ Worker = (*Scheduler)(nil)
