// Package sweep runs the scheduled thread expiration job.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/threadline-io/threadline/internal/thread"
)

// Runner deactivates threads past their lifetime on a cron schedule.
type Runner struct {
	cron         *cron.Cron
	threads      *thread.Service
	lifetimeDays int
	logger       *slog.Logger
}

// New builds a runner for the given cron expression. The schedule is
// validated here so a bad SWEEP_SCHEDULE fails at startup, not at 3am.
func New(threads *thread.Service, lifetimeDays int, schedule string, logger *slog.Logger) (*Runner, error) {
	r := &Runner{
		cron:         cron.New(),
		threads:      threads,
		lifetimeDays: lifetimeDays,
		logger:       logger,
	}
	if _, err := r.cron.AddFunc(schedule, r.run); err != nil {
		return nil, err
	}
	return r, nil
}

// Start begins the schedule in a background goroutine.
func (r *Runner) Start() {
	r.cron.Start()
	r.logger.Info("expiration sweep scheduled", "lifetime_days", r.lifetimeDays)
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Runner) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := r.RunOnce(ctx)
	if err != nil {
		r.logger.Error("expiration sweep failed", "error", err)
		return
	}
	r.logger.Info("expiration sweep completed", "deactivated", n)
}

// RunOnce performs a single sweep immediately.
func (r *Runner) RunOnce(ctx context.Context) (int, error) {
	return r.threads.DeactivateExpired(ctx, r.lifetimeDays, time.Now())
}
