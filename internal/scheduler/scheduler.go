// Package scheduler manages the background jobs: universe scans, price
// history sync, and score export.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// ContextJob is a job that honors cancellation. Shutdown cancels the
// scheduler context, so a long scan or sync in flight stops at its next
// checkpoint instead of holding up Stop.
type ContextJob interface {
	RunContext(ctx context.Context) error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger
}

// New creates a new scheduler
func New(log zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		ctx:    ctx,
		cancel: cancel,
		log:    log.With().Str("component", "scheduler").Logger(),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop cancels in-flight context jobs and waits for all jobs to finish
func (s *Scheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a job with a cron schedule
// Schedule examples:
//   - "0 */5 * * * *"      - Every 5 minutes
//   - "@hourly"            - Every hour
//   - "0 0 3 * * *"        - 3 AM daily
//   - "@every 30s"         - Every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	return s.add(schedule, job.Name(), func() error {
		return job.Run()
	})
}

// AddContextJob registers a cancellable job; it runs under the
// scheduler context and is cancelled on Stop
func (s *Scheduler) AddContextJob(schedule string, job ContextJob) error {
	return s.add(schedule, job.Name(), func() error {
		return job.RunContext(s.ctx)
	})
}

func (s *Scheduler) add(schedule, name string, run func() error) error {
	_, err := s.cron.AddFunc(schedule, func() {
		started := time.Now()
		s.log.Debug().Str("job", name).Msg("Running job")

		if err := run(); err != nil {
			s.log.Error().
				Err(err).
				Str("job", name).
				Dur("elapsed", time.Since(started)).
				Msg("Job failed")
			return
		}

		s.log.Debug().
			Str("job", name).
			Dur("elapsed", time.Since(started)).
			Msg("Job completed")
	})
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", name, err)
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", name).
		Msg("Job registered")

	return nil
}
