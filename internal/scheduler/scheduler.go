package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Pruner drops expired entries and reports how many it removed.
type Pruner interface {
	Prune() int
}

// Scheduler periodically prunes the forecast cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	pruner    Pruner
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(pruner Pruner, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		pruner:    pruner,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.pruner == nil {
		s.logger.Info("scheduler: no cache configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	_, err := s.scheduler.Every(interval).WaitForSchedule().Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce prunes the cache immediately.
func (s *Scheduler) RunOnce() {
	removed := s.pruner.Prune()
	if removed > 0 {
		s.logger.Info("scheduler: pruned expired forecasts", "removed", removed)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
