package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/jlwainwright/email-categorization/internal/mailbox"
)

// Runner invokes successive pipeline passes on a fixed interval. Passes
// never overlap: the next tick is consumed only after the previous pass has
// released its session. A pass-fatal error ends the pass, not the watch;
// the caller decides when to stop via context cancellation.
type Runner struct {
	pipeline *Pipeline
	interval time.Duration
	logger   *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(p *Pipeline, interval time.Duration, logger *slog.Logger) *Runner {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{pipeline: p, interval: interval, logger: logger}
}

// Watch runs one pass immediately and then one per interval until the
// context is cancelled.
func (r *Runner) Watch(ctx context.Context, crit mailbox.Criteria) error {
	r.logger.Info("starting continuous monitoring", "interval", r.interval, "criteria", crit.String())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	cycle := 0
	for {
		cycle++
		if _, err := r.pipeline.Run(ctx, crit); err != nil {
			if ctx.Err() != nil {
				r.logger.Info("monitoring stopped", "cycles", cycle)
				return nil
			}
			r.logger.Error("pass failed", "cycle", cycle, "error", err)
		}

		select {
		case <-ctx.Done():
			r.logger.Info("monitoring stopped", "cycles", cycle)
			return nil
		case <-ticker.C:
		}
	}
}
