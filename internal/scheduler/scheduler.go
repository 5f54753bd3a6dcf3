// Package scheduler runs named background jobs on cron schedules.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"pfm/internal/log"
)

// Job represents a scheduled job
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	logger *log.Logger
}

// New creates a scheduler whose jobs run with ctx. Schedules use the
// standard five-field syntax plus descriptors such as "@every 5m".
func New(ctx context.Context, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default(log.ComponentScheduler)
	}
	return &Scheduler{
		cron:   cron.New(),
		ctx:    ctx,
		logger: logger.WithComponent(log.ComponentScheduler),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// AddJob registers a new job with cron schedule
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() { s.run(job) })
	if err != nil {
		return err
	}

	s.logger.Info("Job registered", "schedule", schedule, "job", job.Name())
	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.logger.Info("Running job immediately", "job", job.Name())
	return job.Run(s.ctx)
}

func (s *Scheduler) run(job Job) {
	if s.ctx.Err() != nil {
		return
	}
	s.logger.Debug("Running job", "job", job.Name())
	if err := job.Run(s.ctx); err != nil {
		s.logger.Error("Job failed", "job", job.Name(), log.FieldError, err)
		return
	}
	s.logger.Debug("Job completed", "job", job.Name())
}
