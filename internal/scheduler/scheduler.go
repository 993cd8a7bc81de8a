package scheduler

import (
	"context"
	"errors"
	"time"

	"internlee-engine/internal/logging"
)

type Task func(ctx context.Context) error

type Options struct {
	Name     string
	Warmup   time.Duration
	Interval time.Duration
	// Busy is logged as a warning instead of an error, e.g. a run conflict.
	Busy error
}

// Run waits Warmup, runs task, then waits Interval after each run finishes.
// Task errors are logged and never stop the loop. Run returns when ctx is
// done during any wait.
func Run(ctx context.Context, opts Options, task Task, log *logging.Logger) {
	if log == nil {
		log = logging.Nop()
	}
	log = log.With("scheduler", opts.Name)
	log.Info("scheduler started", "warmup", opts.Warmup.String(), "interval", opts.Interval.String())

	wait := opts.Warmup
	for {
		if !sleep(ctx, wait) {
			log.Info("scheduler stopped")
			return
		}
		wait = opts.Interval

		err := task(ctx)
		switch {
		case err == nil:
		case opts.Busy != nil && errors.Is(err, opts.Busy):
			log.Warn("scheduled run skipped", "err", err)
		case ctx.Err() != nil:
			log.Info("scheduler stopped")
			return
		default:
			log.Error("scheduled run failed", "err", err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
