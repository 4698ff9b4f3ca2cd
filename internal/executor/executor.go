// Package executor performs UI interactions only after the target element
// has reached a required state, polling at a fixed interval up to a
// deadline.
//
// One Run moves through Polling -> Acted or Polling -> TimedOut and never
// leaves a terminal state. The action fires at most once, and never after
// the context is cancelled.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/v0xg/flowcheck/internal/clock"
	"github.com/v0xg/flowcheck/internal/driver"
	"github.com/v0xg/flowcheck/internal/errs"
	"github.com/v0xg/flowcheck/internal/locator"
	"github.com/v0xg/flowcheck/internal/logging"
)

// MatchPolicy decides what happens when a locator matches several elements.
type MatchPolicy int

const (
	// RequireUnique fails with errs.AmbiguousLocator on more than one match.
	RequireUnique MatchPolicy = iota
	// FirstMatch acts on the first element in document order.
	FirstMatch
)

func (p MatchPolicy) String() string {
	if p == FirstMatch {
		return "first-match"
	}
	return "require-unique"
}

// ActionFunc performs the interaction. el is nil only when waiting for
// Hidden and nothing matched.
type ActionFunc func(ctx context.Context, el driver.Element) error

// Observer is notified around the actions issued by the convenience
// methods (Click, Fill, ...).
type Observer interface {
	BeforeAct(ctx context.Context, loc locator.Locator, el driver.Element, kind driver.ActionKind)
	AfterAct(ctx context.Context, loc locator.Locator, kind driver.ActionKind, err error)
}

// Result describes a successful Run.
type Result struct {
	Elapsed  time.Duration
	Polls    int
	Observed driver.State
}

// Executor runs wait-then-act sequences against one Finder. It holds no
// per-call state and is safe to share within a scenario.
type Executor struct {
	finder   driver.Finder
	defaults WaitSpec
	clock    clock.Clock
	observer Observer
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(e *Executor) { e.clock = c }
}

// WithObserver installs an action observer.
func WithObserver(o Observer) Option {
	return func(e *Executor) { e.observer = o }
}

// New creates an Executor. defaults is the WaitSpec the convenience
// methods use; its State is overridden per method.
func New(finder driver.Finder, defaults WaitSpec, opts ...Option) (*Executor, error) {
	if err := defaults.For(Visible).Validate(); err != nil {
		return nil, err
	}
	e := &Executor{finder: finder, defaults: defaults, clock: clock.Real{}}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Defaults returns the default WaitSpec.
func (e *Executor) Defaults() WaitSpec { return e.defaults }

// Clock returns the executor's time source.
func (e *Executor) Clock() clock.Clock { return e.clock }

// Run polls loc until spec.State is reached, then calls action exactly
// once. Zero matches count as "not attached yet". Driver errors during
// polling count as "not ready" and are reported in the timeout failure.
func (e *Executor) Run(ctx context.Context, loc locator.Locator, spec WaitSpec, policy MatchPolicy, action ActionFunc) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, err
	}
	if loc.IsZero() {
		return Result{}, errs.New(errs.InvalidArgument, "executor: empty locator")
	}

	var last observation
	res, timedOut, err := e.poll(ctx, spec, func(ctx context.Context, elapsed time.Duration) (bool, error) {
		last = e.observe(ctx, loc)
		if err := last.ambiguity(loc, spec, policy, elapsed); err != nil {
			return false, err
		}
		if last.err != nil || !spec.State.satisfiedBy(last.matches > 0, last.state) {
			return false, nil
		}
		// Cancellation wins over a late match.
		if err := ctx.Err(); err != nil {
			return false, err
		}
		logging.Debug("Executor", "%s is %s after %dms", loc, spec.State, elapsed.Milliseconds())
		if err := action(ctx, last.el); err != nil {
			return false, fmt.Errorf("%s: %w", loc, err)
		}
		return true, nil
	})
	if timedOut {
		f := &Failure{
			Kind:         errs.WaitTimeout,
			Locator:      loc,
			Spec:         spec,
			Elapsed:      res.Elapsed,
			LastObserved: last.state,
			Matches:      last.matches,
			LastErr:      last.err,
		}
		logging.Warn("Executor", "%s", f.Error())
		return Result{}, f
	}
	if err != nil {
		return Result{}, err
	}
	res.Observed = last.state
	return res, nil
}

// Poll calls cond on Run's schedule until it reports true or spec.Timeout
// elapses; spec.State is not consulted. Errors from cond count as "not
// ready" and the last one is wrapped into the WaitTimeout error, which
// names what.
func (e *Executor) Poll(ctx context.Context, spec WaitSpec, what string, cond func(ctx context.Context) (bool, error)) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, err
	}
	var lastErr error
	res, timedOut, err := e.poll(ctx, spec, func(ctx context.Context, _ time.Duration) (bool, error) {
		ok, err := cond(ctx)
		lastErr = err
		return err == nil && ok, nil
	})
	if timedOut {
		msg := fmt.Sprintf("timed out after %dms waiting for %s (timeout %dms, poll %dms)",
			res.Elapsed.Milliseconds(), what, spec.Timeout.Milliseconds(), spec.PollInterval.Milliseconds())
		logging.Warn("Executor", "%s", msg)
		return Result{}, errs.Wrap(errs.WaitTimeout, msg, lastErr)
	}
	return res, err
}

// poll is the one wait loop. It calls step every spec.PollInterval, with
// the final wait cut short at the deadline, until step reports done or
// returns an error. timedOut is set when the deadline passed first; res
// then carries the elapsed time.
func (e *Executor) poll(ctx context.Context, spec WaitSpec, step func(ctx context.Context, elapsed time.Duration) (bool, error)) (res Result, timedOut bool, err error) {
	start := e.clock.Now()
	for polls := 1; ; polls++ {
		if err := ctx.Err(); err != nil {
			return Result{}, false, err
		}

		elapsed := e.clock.Now().Sub(start)
		done, err := step(ctx, elapsed)
		if err != nil {
			return Result{}, false, err
		}
		if done {
			return Result{Elapsed: elapsed, Polls: polls}, false, nil
		}
		if elapsed >= spec.Timeout {
			return Result{Elapsed: elapsed, Polls: polls}, true, nil
		}

		wait := min(spec.PollInterval, spec.Timeout-elapsed)
		select {
		case <-ctx.Done():
			return Result{}, false, ctx.Err()
		case <-e.clock.After(wait):
		}
	}
}

type observation struct {
	el      driver.Element
	state   driver.State
	matches int
	err     error
}

// ambiguity returns an AmbiguousLocator failure when policy requires a
// unique match and o saw several.
func (o observation) ambiguity(loc locator.Locator, spec WaitSpec, policy MatchPolicy, elapsed time.Duration) error {
	if o.matches <= 1 || policy != RequireUnique {
		return nil
	}
	logging.Warn("Executor", "%s matched %d elements, one required", loc, o.matches)
	return &Failure{
		Kind:         errs.AmbiguousLocator,
		Locator:      loc,
		Spec:         spec,
		Elapsed:      elapsed,
		LastObserved: o.state,
		Matches:      o.matches,
	}
}

func (e *Executor) observe(ctx context.Context, loc locator.Locator) observation {
	els, err := e.finder.FindElements(ctx, loc)
	if err != nil {
		return observation{err: err}
	}
	if len(els) == 0 {
		return observation{}
	}
	el := els[0]
	st, err := el.State(ctx)
	if err != nil {
		return observation{matches: len(els), err: err}
	}
	return observation{el: el, state: st, matches: len(els)}
}
