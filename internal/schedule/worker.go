// Package schedule runs background jobs on cron expressions and fixed intervals.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorhill/cronexpr"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context)

// CronWorker fires a job on every occurrence of a cron expression.
type CronWorker struct {
	name   string
	spec   string
	expr   *cronexpr.Expression
	job    Job
	logger *slog.Logger
	now    func() time.Time
}

// NewCronWorker parses spec. Standard 5-field expressions and the @hourly,
// @daily style shortcuts are accepted.
func NewCronWorker(name, spec string, job Job, logger *slog.Logger) (*CronWorker, error) {
	expr, err := cronexpr.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CronWorker{name: name, spec: spec, expr: expr, job: job, logger: logger, now: time.Now}, nil
}

// Next returns the first occurrence strictly after t, or the zero time if none.
func (w *CronWorker) Next(t time.Time) time.Time {
	return w.expr.Next(t)
}

// Start runs the worker in a goroutine until ctx is done.
func (w *CronWorker) Start(ctx context.Context) {
	go func() {
		w.logger.Info("Cron worker started", "worker", w.name, "schedule", w.spec)
		for {
			now := w.now()
			next := w.Next(now)
			if next.IsZero() {
				w.logger.Warn("Cron schedule has no further occurrences, stopping", "worker", w.name)
				return
			}

			timer := time.NewTimer(next.Sub(now))
			select {
			case <-ctx.Done():
				timer.Stop()
				w.logger.Info("Cron worker shutting down", "worker", w.name, "reason", ctx.Err())
				return
			case <-timer.C:
				w.logger.Debug("Cron worker firing", "worker", w.name, "scheduled_for", next)
				w.job(ctx)
			}
		}
	}()
}

// StartInterval runs job every interval until ctx is done.
func StartInterval(ctx context.Context, name string, interval time.Duration, job Job, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		logger.Info("Interval worker started", "worker", name, "interval", interval)

		for {
			select {
			case <-ticker.C:
				job(ctx)
			case <-ctx.Done():
				logger.Info("Interval worker shutting down", "worker", name, "reason", ctx.Err())
				return
			}
		}
	}()
}
