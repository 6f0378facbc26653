package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"github.com/gridironlabs/roster-engine/internal/platform/logging"
)

// RunFunc executes one pipeline pass.
type RunFunc func(ctx context.Context) error

// Scheduler drives daemon mode: it fires the pipeline on a cron spec and
// skips a tick when the previous run is still going.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	run     RunFunc
	logger  *logging.Logger
	running atomic.Bool
}

func New(spec string, run RunFunc, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		spec:   spec,
		run:    run,
		logger: logger,
	}
}

// Start registers the cron entry and begins scheduling. It returns once the
// scheduler is armed; runs happen on cron's goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.run == nil {
		return fmt.Errorf("scheduler run function is required")
	}

	if _, err := s.cron.AddFunc(s.spec, func() {
		if !s.running.CompareAndSwap(false, true) {
			s.logger.Warn("previous pipeline run still in progress, skipping tick")
			return
		}
		defer s.running.Store(false)

		if err := s.run(ctx); err != nil {
			s.logger.ErrorContext(ctx, "scheduled pipeline run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule pipeline cron %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "cron_spec", s.spec)
	return nil
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("scheduler stopped")
}
