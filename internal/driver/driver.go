// Package driver defines the narrow remote UI interface the executor and
// page objects depend on. Adapters live in subpackages: rod and pw drive
// Chromium, appium drives a mobile device over WebDriver.
package driver

import (
	"context"
	"fmt"

	"github.com/v0xg/flowcheck/internal/errs"
	"github.com/v0xg/flowcheck/internal/locator"
)

// ActionKind is an interaction performed on an element.
type ActionKind string

const (
	Click  ActionKind = "click"
	Fill   ActionKind = "fill"
	Check  ActionKind = "check"
	Select ActionKind = "select"
)

// State is the observed state of one element.
type State struct {
	Attached bool
	Visible  bool
	Enabled  bool
}

// Detached is the state of an element that no longer matches.
var Detached = State{}

func (s State) String() string {
	switch {
	case !s.Attached:
		return "detached"
	case s.Visible && s.Enabled:
		return "visible,enabled"
	case s.Visible:
		return "visible,disabled"
	case s.Enabled:
		return "hidden,enabled"
	default:
		return "hidden,disabled"
	}
}

// Element is a handle to a single matched element.
type Element interface {
	State(ctx context.Context) (State, error)
	Act(ctx context.Context, kind ActionKind, payload string) error
	Text(ctx context.Context) (string, error)
}

// Finder resolves a locator without waiting. Zero matches is an empty
// slice and a nil error.
type Finder interface {
	FindElements(ctx context.Context, loc locator.Locator) ([]Element, error)
}

// Session is one remote automation session (a browser page or a device).
type Session interface {
	Finder
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	// Screenshot returns a PNG of the current viewport.
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Pointer is implemented by elements that can report their on-screen centre.
type Pointer interface {
	Center(ctx context.Context) (x, y int, err error)
}

// PageSummary describes the current page for failure diagnosis.
type PageSummary struct {
	URL      string
	Title    string
	Elements []ElementSummary
}

// ElementSummary is one visible interactive element.
type ElementSummary struct {
	Selector string
	Type     string
	Text     string
}

// Inspector is implemented by sessions that can summarise the current page.
type Inspector interface {
	Inspect(ctx context.Context) (*PageSummary, error)
}

// Unsupported reports a strategy or action a driver cannot express.
func Unsupported(driverName string, what any) error {
	return errs.New(errs.InvalidArgument, fmt.Sprintf("%s: unsupported %v", driverName, what))
}

// Factory opens sessions on demand, one per scenario.
type Factory interface {
	NewSession(ctx context.Context) (Session, error)
	Close() error
}
