// Package cleanup runs teardown steps whose failure must never change a
// scenario's verdict.
package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/v0xg/flowcheck/internal/errs"
	"github.com/v0xg/flowcheck/internal/logging"
)

// Outcome is how a teardown ended.
type Outcome int

const (
	Done Outcome = iota
	Failed
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Run executes fn with a deadline of timeout. Errors, panics and overruns
// are logged as cleanup failures and swallowed; Run always returns within
// timeout. fn keeps running in the background if it ignores its context.
func Run(ctx context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) Outcome {
	// Teardown still runs when the scenario itself was cancelled.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			logging.WarnErr("Cleanup", errs.Wrap(errs.CleanupFailure, name, err), "cleanup %q skipped or failed", name)
			return Failed
		}
		logging.Debug("Cleanup", "cleanup %q done", name)
		return Done
	case <-ctx.Done():
		logging.WarnErr("Cleanup", errs.Wrap(errs.CleanupFailure, name, ctx.Err()), "cleanup %q abandoned after %s", name, timeout)
		return TimedOut
	}
}
