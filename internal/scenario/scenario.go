// Package scenario defines the end-to-end checks and runs them with a
// bounded worker pool, one driver session per UI or mobile scenario.
package scenario

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/v0xg/flowcheck/internal/api"
	"github.com/v0xg/flowcheck/internal/clock"
	"github.com/v0xg/flowcheck/internal/config"
	"github.com/v0xg/flowcheck/internal/driver"
	"github.com/v0xg/flowcheck/internal/executor"
	"github.com/v0xg/flowcheck/internal/pages"
)

// Kind groups scenarios by the collaborator they need.
type Kind string

const (
	KindAPI    Kind = "api"
	KindUI     Kind = "ui"
	KindMobile Kind = "mobile"
)

// Scenario is one named end-to-end check.
type Scenario struct {
	Name        string
	Kind        Kind
	Description string
	Run         func(ctx context.Context, t *T) error
}

// Env is shared by every scenario of a run. Browser and Mobile may be nil,
// in which case scenarios needing them are skipped.
type Env struct {
	Config  config.Config
	API     *api.Client
	Browser driver.Factory
	Mobile  driver.Factory
	// Clock drives executor polling; nil means the real clock.
	Clock clock.Clock
}

// T is the per-scenario handle passed to Run.
type T struct {
	Env     *Env
	Session driver.Session
	Exec    *executor.Executor
}

// UI returns the page-object bundle for the scenario's browser session.
func (t *T) UI() pages.UI {
	return pages.UI{
		Session:  t.Session,
		Exec:     t.Exec,
		BaseURL:  t.Env.Config.BaseURL,
		LongWait: t.Env.Config.Wait.Long,
	}
}

var registry = map[string]Scenario{}

func register(s Scenario) {
	if _, dup := registry[s.Name]; dup {
		panic(fmt.Sprintf("scenario %q registered twice", s.Name))
	}
	registry[s.Name] = s
}

// All returns every scenario sorted by name.
func All() []Scenario {
	out := make([]Scenario, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Select returns the scenarios whose names match any glob pattern
// (path.Match syntax). No patterns selects everything.
func Select(patterns ...string) ([]Scenario, error) {
	all := All()
	if len(patterns) == 0 {
		return all, nil
	}
	var out []Scenario
	for _, s := range all {
		for _, p := range patterns {
			ok, err := path.Match(p, s.Name)
			if err != nil {
				return nil, fmt.Errorf("bad scenario pattern %q: %w", p, err)
			}
			if ok {
				out = append(out, s)
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scenario matches %v", patterns)
	}
	return out, nil
}

func (e *Env) clock() clock.Clock {
	if e.Clock == nil {
		return clock.Real{}
	}
	return e.Clock
}
