// Package scheduler runs a job on a fixed wall-clock interval.
package scheduler

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Job is the unit of work the scheduler invokes. Implementations are
// expected to serialize their own execution; the scheduler logs and drops
// errors so a failed run never stops the schedule.
type Job func(ctx context.Context) error

// Scheduler invokes a job on a fixed interval until its context is done.
type Scheduler struct {
	name     string
	interval time.Duration
	job      Job
	log      hclog.Logger
}

// New creates a scheduler.
func New(name string, interval time.Duration, job Job, log hclog.Logger) *Scheduler {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Scheduler{
		name:     name,
		interval: interval,
		job:      job,
		log:      log.With("job", name),
	}
}

// Start launches the schedule in a goroutine. The first invocation happens
// after one full interval; nothing runs at boot.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("starting scheduler", "interval", s.interval)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.log.Info("scheduler stopped")
				return
			case <-ticker.C:
				s.log.Info("running scheduled job")
				if err := s.job(ctx); err != nil {
					s.log.Error("scheduled job failed", "error", err)
					continue
				}
				s.log.Info("scheduled job completed")
			}
		}
	}()
}
