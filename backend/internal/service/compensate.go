package service

import (
	"context"
	"log/slog"

	"github.com/itchan-dev/anniv/shared/config"
	"github.com/itchan-dev/anniv/shared/middleware/metrics"
)

type compensationStep struct {
	name string
	undo func(ctx context.Context) error
}

// compensation records what a multi-resource operation created so it can be
// undone in reverse order when the operation fails. Undo errors are logged and
// never replace the error that caused the rollback.
type compensation struct {
	steps []compensationStep
}

func (c *compensation) add(name string, undo func(ctx context.Context) error) {
	c.steps = append(c.steps, compensationStep{name: name, undo: undo})
}

func (c *compensation) empty() bool {
	return len(c.steps) == 0
}

func (c *compensation) run(ctx context.Context, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.CompensationTimeout)
	defer cancel()

	for i := len(c.steps) - 1; i >= 0; i-- {
		step := c.steps[i]
		if err := step.undo(ctx); err != nil {
			metrics.Compensations.WithLabelValues("failed").Inc()
			log.Error("compensation step failed", "step", step.name, "error", err)
			continue
		}
		metrics.Compensations.WithLabelValues("ok").Inc()
		log.Debug("compensation step done", "step", step.name)
	}
	c.steps = nil
}
