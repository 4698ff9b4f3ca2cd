package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/v0xg/flowcheck/internal/driver"
	"github.com/v0xg/flowcheck/internal/errs"
	"github.com/v0xg/flowcheck/internal/locator"
)

// Click waits for loc to be visible and clicks it.
func (e *Executor) Click(ctx context.Context, loc locator.Locator) error {
	return e.Perform(ctx, loc, e.defaults.For(Visible), RequireUnique, driver.Click, "")
}

// ClickFirst is Click under the FirstMatch policy.
func (e *Executor) ClickFirst(ctx context.Context, loc locator.Locator, timeout time.Duration) error {
	return e.Perform(ctx, loc, e.defaults.For(Visible).WithTimeout(timeout), FirstMatch, driver.Click, "")
}

// Fill waits for loc to be visible and replaces its value with text.
func (e *Executor) Fill(ctx context.Context, loc locator.Locator, text string) error {
	return e.Perform(ctx, loc, e.defaults.For(Visible), RequireUnique, driver.Fill, text)
}

// Check waits for a checkbox or radio to be enabled and checks it.
func (e *Executor) Check(ctx context.Context, loc locator.Locator) error {
	return e.Perform(ctx, loc, e.defaults.For(Enabled), RequireUnique, driver.Check, "")
}

// Select waits for a select element to be enabled and picks option by label.
func (e *Executor) Select(ctx context.Context, loc locator.Locator, option string) error {
	return e.Perform(ctx, loc, e.defaults.For(Enabled), RequireUnique, driver.Select, option)
}

// ReadText waits for loc per spec and returns its text.
func (e *Executor) ReadText(ctx context.Context, loc locator.Locator, spec WaitSpec, policy MatchPolicy) (string, error) {
	var text string
	_, err := e.Run(ctx, loc, spec, policy, func(ctx context.Context, el driver.Element) error {
		if el == nil {
			return errs.New(errs.InvalidArgument, "no element to read text from")
		}
		var err error
		text, err = el.Text(ctx)
		return err
	})
	return text, err
}

// WaitFor waits until loc reaches spec.State without acting.
func (e *Executor) WaitFor(ctx context.Context, loc locator.Locator, spec WaitSpec, policy MatchPolicy) error {
	_, err := e.Run(ctx, loc, spec, policy, func(context.Context, driver.Element) error { return nil })
	return err
}

// Visible reports whether loc is visible right now, without waiting.
// Under RequireUnique several matches are an AmbiguousLocator failure;
// under FirstMatch the first element decides.
func (e *Executor) Visible(ctx context.Context, loc locator.Locator, policy MatchPolicy) (bool, error) {
	if loc.IsZero() {
		return false, errs.New(errs.InvalidArgument, "executor: empty locator")
	}
	obs := e.observe(ctx, loc)
	if err := obs.ambiguity(loc, e.defaults.For(Visible), policy, 0); err != nil {
		return false, err
	}
	if obs.err != nil {
		return false, obs.err
	}
	return Visible.satisfiedBy(obs.matches > 0, obs.state), nil
}

// Perform waits for loc per spec and applies kind once, notifying the
// observer around the action. A Hidden spec satisfied by zero matches
// leaves nothing to act on and is an InvalidArgument error.
func (e *Executor) Perform(ctx context.Context, loc locator.Locator, spec WaitSpec, policy MatchPolicy, kind driver.ActionKind, payload string) error {
	_, err := e.Run(ctx, loc, spec, policy, func(ctx context.Context, el driver.Element) error {
		if el == nil {
			return errs.New(errs.InvalidArgument, fmt.Sprintf("no element to %s", kind))
		}
		if e.observer != nil {
			e.observer.BeforeAct(ctx, loc, el, kind)
		}
		err := el.Act(ctx, kind, payload)
		if e.observer != nil {
			e.observer.AfterAct(ctx, loc, kind, err)
		}
		return err
	})
	return err
}
