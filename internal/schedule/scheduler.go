// Package schedule runs periodic maintenance jobs (security audits,
// budget pool snapshots) against a cron expression or fixed interval,
// styled on the schedule/cron layer of the teacher's task system.
package schedule

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work. Errors are logged, never
// propagated: a failing job must not bring down the scheduler.
type Job struct {
	Name string
	Run  func() error
}

// Scheduler wraps a cron.Cron with slog-based error reporting and
// name-addressable job registration.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// New constructs a Scheduler. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		logger: logger,
	}
}

// AddJob registers job to run on the given standard (with optional
// leading seconds field) cron expression.
func (s *Scheduler) AddJob(expr string, job Job) (cron.EntryID, error) {
	return s.cron.AddFunc(expr, func() {
		if err := job.Run(); err != nil {
			s.logger.Error("scheduled job failed", "job", job.Name, "error", err)
			return
		}
		s.logger.Info("scheduled job completed", "job", job.Name)
	})
}

// Start runs the scheduler's jobs in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop cancels the schedule and waits for any running job to finish.
func (s *Scheduler) Stop() { <-s.cron.Stop().Done() }
