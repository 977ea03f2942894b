package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"tradeLog/internal/ports"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron   *cron.Cron
	logger ports.Logger
}

// New creates a new scheduler. Schedules use the standard five-field cron
// syntax plus descriptors such as "@hourly" and "@every 30m".
func New(logger ports.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info(context.Background(), "Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info(context.Background(), "Scheduler stopped")
}

// AddJob registers a new job with cron schedule
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.run(job)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, job.Name(), err)
	}

	s.logger.Info(context.Background(), "Job registered", map[string]interface{}{"schedule": schedule, "job": job.Name()})
	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.logger.Info(context.Background(), "Running job immediately", map[string]interface{}{"job": job.Name()})
	return job.Run()
}

func (s *Scheduler) run(job Job) {
	fields := map[string]interface{}{"job": job.Name()}
	s.logger.Debug(context.Background(), "Running job", fields)
	if err := job.Run(); err != nil {
		s.logger.Error(context.Background(), err, "Job failed", fields)
		return
	}
	s.logger.Debug(context.Background(), "Job completed", fields)
}
