package scenario

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/v0xg/flowcheck/internal/driver"
	"github.com/v0xg/flowcheck/internal/errs"
	"github.com/v0xg/flowcheck/internal/executor"
	"github.com/v0xg/flowcheck/internal/logging"
	"github.com/v0xg/flowcheck/internal/trace"
)

// Status is the verdict of one scenario.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Result is the outcome of one scenario.
type Result struct {
	Name      string
	Kind      Kind
	Status    Status
	Duration  time.Duration
	Err       error
	Artifacts []string
}

// artifactTimeout bounds screenshot and trace writing after a failure.
const artifactTimeout = 15 * time.Second

// Runner executes scenarios against an Env.
type Runner struct {
	Env      *Env
	RunID    string
	Parallel int
	// Artifacts is the directory for failure screenshots and traces;
	// empty disables them.
	Artifacts string
	Trace     bool
	// OnResult is called as each scenario finishes. Calls are serialised.
	OnResult func(Result)

	mu sync.Mutex
}

// NewRunner creates a runner configured from env.Config with a fresh run ID.
func NewRunner(env *Env) *Runner {
	return &Runner{
		Env:       env,
		RunID:     uuid.NewString(),
		Parallel:  env.Config.Parallel,
		Artifacts: env.Config.Artifacts,
		Trace:     env.Config.Trace,
	}
}

// Run executes scenarios with at most Parallel in flight and returns their
// results in input order. A failing scenario never stops the others.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) []Result {
	logging.Info("Runner", "run %s: %d scenarios, parallel %d", r.RunID, len(scenarios), max(1, r.Parallel))

	results := make([]Result, len(scenarios))
	var g errgroup.Group
	g.SetLimit(max(1, r.Parallel))
	for i, sc := range scenarios {
		g.Go(func() error {
			results[i] = r.runOne(ctx, sc)
			r.report(results[i])
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runner) report(res Result) {
	if r.OnResult == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.OnResult(res)
}

func (r *Runner) factory(kind Kind) driver.Factory {
	switch kind {
	case KindUI:
		return r.Env.Browser
	case KindMobile:
		return r.Env.Mobile
	}
	return nil
}

func (r *Runner) runOne(ctx context.Context, sc Scenario) (res Result) {
	res = Result{Name: sc.Name, Kind: sc.Kind}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		res.Status, res.Err = StatusSkip, err
		return res
	}
	logging.Debug("Runner", "%s: started", sc.Name)

	t := &T{Env: r.Env}
	var rec *trace.Recorder
	if sc.Kind != KindAPI {
		factory := r.factory(sc.Kind)
		if factory == nil {
			res.Status = StatusSkip
			res.Err = errs.New(errs.Unavailable, fmt.Sprintf("no %s driver configured", sc.Kind))
			logging.Info("Runner", "%s: skipped (%v)", sc.Name, res.Err)
			return res
		}
		session, err := factory.NewSession(ctx)
		if err != nil {
			res.Status = StatusFail
			res.Err = errs.Wrap(errs.Unavailable, "open session", err)
			logging.Error("Runner", res.Err, "%s: no session", sc.Name)
			return res
		}
		defer func() {
			if err := session.Close(); err != nil {
				logging.Debug("Runner", "%s: closing session: %v", sc.Name, err)
			}
		}()

		opts := []executor.Option{executor.WithClock(r.Env.clock())}
		if r.Trace {
			rec = trace.NewRecorder(session)
			opts = append(opts, executor.WithObserver(rec))
		}
		exec, err := executor.New(session, r.Env.Config.WaitSpec(), opts...)
		if err != nil {
			res.Status, res.Err = StatusFail, err
			return res
		}
		t.Session, t.Exec = session, exec
	}

	err := sc.Run(ctx, t)
	if err == nil {
		res.Status = StatusPass
		logging.Info("Runner", "%s: passed", sc.Name)
		return res
	}

	res.Status, res.Err = StatusFail, err
	logging.Error("Runner", err, "%s: failed (%s)", sc.Name, errs.CodeOf(err))
	if t.Session != nil {
		res.Artifacts = r.collect(ctx, sc, t.Session, rec)
	}
	return res
}

// collect logs a page summary and writes failure artifacts. Errors are
// logged and never change the verdict.
func (r *Runner) collect(ctx context.Context, sc Scenario, session driver.Session, rec *trace.Recorder) []string {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), artifactTimeout)
	defer cancel()

	if inspector, ok := session.(driver.Inspector); ok {
		summary, err := inspector.Inspect(ctx)
		if err != nil {
			logging.Debug("Runner", "%s: inspect failed: %v", sc.Name, err)
		} else {
			logging.Info("Runner", "%s: page at failure %s (%q, %d interactive elements)",
				sc.Name, summary.URL, summary.Title, len(summary.Elements))
			for _, el := range summary.Elements {
				logging.Debug("Runner", "  %s %s %q", el.Type, el.Selector, el.Text)
			}
		}
	}

	if r.Artifacts == "" {
		return nil
	}
	base := filepath.Join(r.Artifacts, r.RunID, strings.ReplaceAll(sc.Name, "/", "_"))

	var written []string
	shot := base + ".png"
	if err := trace.SaveScreenshot(ctx, session, shot); err != nil {
		logging.WarnErr("Runner", err, "%s: screenshot not saved", sc.Name)
	} else {
		written = append(written, shot)
	}
	if rec != nil {
		gif := base + ".gif"
		if size, err := rec.WriteGIF(ctx, gif, trace.GIFOptions{}); err != nil {
			logging.WarnErr("Runner", err, "%s: trace not saved", sc.Name)
		} else if size > 0 {
			written = append(written, gif)
		}
	}
	return written
}

// Failed reports whether any result failed.
func Failed(results []Result) bool {
	for _, res := range results {
		if res.Status == StatusFail {
			return true
		}
	}
	return false
}
