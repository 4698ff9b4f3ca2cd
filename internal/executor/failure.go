package executor

import (
	"fmt"
	"time"

	"github.com/v0xg/flowcheck/internal/driver"
	"github.com/v0xg/flowcheck/internal/errs"
	"github.com/v0xg/flowcheck/internal/locator"
)

// Failure is a diagnosable wait failure: the target never reached the
// requested state (errs.WaitTimeout) or resolved to several elements where
// one was required (errs.AmbiguousLocator).
type Failure struct {
	Kind         errs.Code
	Locator      locator.Locator
	Spec         WaitSpec
	Elapsed      time.Duration
	LastObserved driver.State
	Matches      int
	// LastErr is the most recent driver error seen while polling, if any.
	LastErr error
}

func (f *Failure) Error() string {
	if f.Kind == errs.AmbiguousLocator {
		return fmt.Sprintf("ambiguous locator %s: %d matches where one was required (waiting for %s, elapsed %dms)",
			f.Locator, f.Matches, f.Spec.State, f.Elapsed.Milliseconds())
	}
	msg := fmt.Sprintf("timed out after %dms waiting for %s to be %s (timeout %dms, poll %dms, last observed %s, %d matches)",
		f.Elapsed.Milliseconds(), f.Locator, f.Spec.State, f.Spec.Timeout.Milliseconds(),
		f.Spec.PollInterval.Milliseconds(), f.LastObserved, f.Matches)
	if f.LastErr != nil {
		msg += ": last driver error: " + f.LastErr.Error()
	}
	return msg
}

func (f *Failure) Code() errs.Code { return f.Kind }

func (f *Failure) Unwrap() error { return f.LastErr }
