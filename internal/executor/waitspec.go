package executor

import (
	"fmt"
	"time"

	"github.com/v0xg/flowcheck/internal/driver"
	"github.com/v0xg/flowcheck/internal/errs"
)

// TargetState is the element state an action waits for.
type TargetState int

const (
	Visible TargetState = iota + 1
	Hidden
	Enabled
	Attached
)

func (s TargetState) String() string {
	switch s {
	case Visible:
		return "visible"
	case Hidden:
		return "hidden"
	case Enabled:
		return "enabled"
	case Attached:
		return "attached"
	default:
		return fmt.Sprintf("TargetState(%d)", int(s))
	}
}

// satisfiedBy reports whether an observed state meets the target. found is
// false when the locator matched nothing.
func (s TargetState) satisfiedBy(found bool, st driver.State) bool {
	switch s {
	case Visible:
		return found && st.Attached && st.Visible
	case Hidden:
		return !found || !st.Attached || !st.Visible
	case Enabled:
		return found && st.Attached && st.Enabled
	case Attached:
		return found && st.Attached
	}
	return false
}

// WaitSpec bounds one wait: poll every PollInterval until State is reached
// or Timeout elapses.
type WaitSpec struct {
	Timeout      time.Duration
	PollInterval time.Duration
	State        TargetState
}

// NewWaitSpec builds and validates a WaitSpec.
func NewWaitSpec(timeout, poll time.Duration, state TargetState) (WaitSpec, error) {
	spec := WaitSpec{Timeout: timeout, PollInterval: poll, State: state}
	if err := spec.Validate(); err != nil {
		return WaitSpec{}, err
	}
	return spec, nil
}

// Validate enforces PollInterval > 0 and Timeout >= PollInterval.
func (w WaitSpec) Validate() error {
	switch {
	case w.PollInterval <= 0:
		return errs.New(errs.InvalidArgument, fmt.Sprintf("wait spec: poll interval must be positive, got %dms", w.PollInterval.Milliseconds()))
	case w.Timeout < w.PollInterval:
		return errs.New(errs.InvalidArgument, fmt.Sprintf("wait spec: timeout %dms is shorter than poll interval %dms", w.Timeout.Milliseconds(), w.PollInterval.Milliseconds()))
	case w.State < Visible || w.State > Attached:
		return errs.New(errs.InvalidArgument, fmt.Sprintf("wait spec: unknown target state %d", int(w.State)))
	}
	return nil
}

// For returns a copy waiting for a different state.
func (w WaitSpec) For(state TargetState) WaitSpec {
	w.State = state
	return w
}

// WithTimeout returns a copy with a different timeout.
func (w WaitSpec) WithTimeout(timeout time.Duration) WaitSpec {
	w.Timeout = timeout
	return w
}

func (w WaitSpec) String() string {
	return fmt.Sprintf("%s within %dms (poll %dms)", w.State, w.Timeout.Milliseconds(), w.PollInterval.Milliseconds())
}
