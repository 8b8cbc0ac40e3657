// Package scheduler fires the scan job on a cron cadence.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Job is the unit of work fired on each trigger. Overlapping triggers are
// absorbed by the job's own re-entrancy guard, not here.
type Job interface {
	Execute(ctx context.Context)
}

// Scheduler wraps a cron runner around a single job.
type Scheduler struct {
	cron     *cron.Cron
	stopOnce sync.Once
}

// New validates expr and registers job against it. Standard five-field
// cron expressions and descriptors (@hourly, @every 30m) are accepted.
func New(expr string, job Job) (*Scheduler, error) {
	c := cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)))
	if _, err := c.AddFunc(expr, func() {
		job.Execute(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return &Scheduler{cron: c}, nil
}

// Start begins firing triggers.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started")
}

// Stop halts the trigger loop. Safe to call more than once; a job already
// running is not interrupted.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.cron.Stop()
		slog.Info("scheduler stopped")
	})
}
