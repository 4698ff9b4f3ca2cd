package scenario

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/flowcheck/internal/api"
	"github.com/v0xg/flowcheck/internal/api/apitest"
	"github.com/v0xg/flowcheck/internal/clock"
	"github.com/v0xg/flowcheck/internal/config"
	"github.com/v0xg/flowcheck/internal/driver"
	"github.com/v0xg/flowcheck/internal/driver/drivertest"
	"github.com/v0xg/flowcheck/internal/errs"
	"github.com/v0xg/flowcheck/internal/pages/pagestest"
)

const shopURL = "http://shop.test"

type fakeFactory struct {
	clk   *clock.Fake
	setup func(*drivertest.Session)

	mu       sync.Mutex
	sessions []*drivertest.Session
}

func (f *fakeFactory) NewSession(ctx context.Context) (driver.Session, error) {
	s := drivertest.New(f.clk)
	if f.setup != nil {
		f.setup(s)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeFactory) Close() error { return nil }

func (f *fakeFactory) allClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if !s.Closed() {
			return false
		}
	}
	return true
}

func newEnv(t *testing.T, apiURL string) (*Env, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	cfg := config.Default()
	cfg.BaseURL = shopURL
	cfg.APIURL = apiURL
	cfg.Artifacts = ""
	return &Env{Config: cfg, API: api.NewClient(apiURL, 5*time.Second), Clock: clk}, clk
}

func runNamed(t *testing.T, r *Runner, patterns ...string) []Result {
	t.Helper()
	selected, err := Select(patterns...)
	require.NoError(t, err)
	return r.Run(context.Background(), selected)
}

func TestRegistry(t *testing.T) {
	var names []string
	for _, s := range All() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"api/verify-login-missing-email",
		"api/verify-login-missing-password",
		"api/verify-login-unknown",
		"api/verify-login-valid",
		"mobile/wikipedia-search",
		"ui/login-invalid",
		"ui/login-valid",
	}, names)
}

func TestSelect(t *testing.T) {
	apiOnly, err := Select("api/*")
	require.NoError(t, err)
	assert.Len(t, apiOnly, 4)

	some, err := Select("ui/login-valid", "mobile/*")
	require.NoError(t, err)
	assert.Len(t, some, 2)

	_, err = Select("[")
	assert.Error(t, err)

	_, err = Select("nothing/*")
	assert.ErrorContains(t, err, "no scenario matches")
}

func TestAPIScenarios_Pass(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	env, _ := newEnv(t, srv.URL)

	results := runNamed(t, NewRunner(env), "api/*")

	require.Len(t, results, 4)
	for _, res := range results {
		assert.Equal(t, StatusPass, res.Status, "%s: %v", res.Name, res.Err)
	}
	assert.Equal(t, 1, srv.Calls("/api/deleteAccount"), "created account is cleaned up")
	assert.False(t, Failed(results))
}

func TestAPIScenario_UnexpectedStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	env, _ := newEnv(t, srv.URL)

	results := runNamed(t, NewRunner(env), "api/verify-login-unknown")

	require.Len(t, results, 1)
	assert.Equal(t, StatusFail, results[0].Status)
	assert.Equal(t, errs.ExternalService, errs.CodeOf(results[0].Err))
}

func TestAPIScenario_WrongCodeIsAssertionFailure(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	// The "unknown" user exists, so verifyLogin answers 200.
	srv.AddAccount("invalid@example.com", "wrongpassword")
	env, _ := newEnv(t, srv.URL)

	results := runNamed(t, NewRunner(env), "api/verify-login-unknown")

	assert.Equal(t, StatusFail, results[0].Status)
	assert.Equal(t, errs.AssertionFailed, errs.CodeOf(results[0].Err))
	assert.ErrorContains(t, results[0].Err, "expected responseCode 404, got 200")
}

func TestUIScenarios_Pass(t *testing.T) {
	env, clk := newEnv(t, "http://api.test")
	browser := &fakeFactory{clk: clk, setup: func(s *drivertest.Session) { pagestest.NewStore(s, shopURL) }}
	env.Browser = browser

	r := NewRunner(env)
	r.Parallel = 2
	results := runNamed(t, r, "ui/*")

	require.Len(t, results, 2)
	for _, res := range results {
		assert.Equal(t, StatusPass, res.Status, "%s: %v", res.Name, res.Err)
	}
	assert.True(t, browser.allClosed())
}

func TestLoginValid_CleanupFailureKeepsVerdict(t *testing.T) {
	env, clk := newEnv(t, "http://api.test")
	var store *pagestest.Store
	env.Browser = &fakeFactory{clk: clk, setup: func(s *drivertest.Session) {
		store = pagestest.NewStore(s, shopURL)
		store.BreakDelete()
	}}

	results := runNamed(t, NewRunner(env), "ui/login-valid")

	assert.Equal(t, StatusPass, results[0].Status, "%v", results[0].Err)
	assert.NotEmpty(t, store.LoggedIn(), "account was left behind")
}

func TestUIScenario_FailureWritesArtifacts(t *testing.T) {
	env, clk := newEnv(t, "http://api.test")
	env.Config.Artifacts = t.TempDir()
	env.Config.Trace = true
	// A blank page: nothing ever matches.
	env.Browser = &fakeFactory{clk: clk}

	r := NewRunner(env)
	results := runNamed(t, r, "ui/login-invalid")

	res := results[0]
	require.Equal(t, StatusFail, res.Status)
	assert.Equal(t, errs.WaitTimeout, errs.CodeOf(res.Err))
	assert.Contains(t, res.Err.Error(), "signup/login link")
	require.Len(t, res.Artifacts, 2)
	for _, path := range res.Artifacts {
		assert.FileExists(t, path)
		assert.Contains(t, path, r.RunID)
	}
}

func TestMobileScenario(t *testing.T) {
	t.Run("skipped without a device", func(t *testing.T) {
		env, _ := newEnv(t, "http://api.test")
		results := runNamed(t, NewRunner(env), "mobile/*")
		assert.Equal(t, StatusSkip, results[0].Status)
		assert.Equal(t, errs.Unavailable, errs.CodeOf(results[0].Err))
		assert.False(t, Failed(results))
	})

	t.Run("passes against the app", func(t *testing.T) {
		env, clk := newEnv(t, "http://api.test")
		env.Mobile = &fakeFactory{clk: clk, setup: func(s *drivertest.Session) { pagestest.NewWikipedia(s) }}
		results := runNamed(t, NewRunner(env), "mobile/*")
		assert.Equal(t, StatusPass, results[0].Status, "%v", results[0].Err)
	})

	t.Run("fails when the title does not mention the query", func(t *testing.T) {
		env, clk := newEnv(t, "http://api.test")
		env.Mobile = &fakeFactory{clk: clk, setup: func(s *drivertest.Session) {
			pagestest.NewWikipedia(s).Articles["Appium"] = []string{"Selenium"}
		}}
		results := runNamed(t, NewRunner(env), "mobile/*")
		assert.Equal(t, StatusFail, results[0].Status)
		assert.Equal(t, errs.AssertionFailed, errs.CodeOf(results[0].Err))
	})
}

func TestRunner_ResultsKeepInputOrder(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	env, clk := newEnv(t, srv.URL)
	env.Browser = &fakeFactory{clk: clk, setup: func(s *drivertest.Session) { pagestest.NewStore(s, shopURL) }}
	env.Mobile = &fakeFactory{clk: clk, setup: func(s *drivertest.Session) { pagestest.NewWikipedia(s) }}

	var (
		mu       sync.Mutex
		reported []string
	)
	r := NewRunner(env)
	r.Parallel = 4
	r.OnResult = func(res Result) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, res.Name)
	}

	all := All()
	results := r.Run(context.Background(), all)

	require.Len(t, results, len(all))
	for i, res := range results {
		assert.Equal(t, all[i].Name, res.Name)
		assert.Equal(t, StatusPass, res.Status, "%s: %v", res.Name, res.Err)
	}
	assert.ElementsMatch(t, reported, []string{
		"api/verify-login-missing-email", "api/verify-login-missing-password",
		"api/verify-login-unknown", "api/verify-login-valid", "mobile/wikipedia-search",
		"ui/login-invalid", "ui/login-valid",
	})
}

func TestRunner_CancelledBeforeStartSkips(t *testing.T) {
	env, _ := newEnv(t, "http://api.test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewRunner(env).Run(ctx, All())
	for _, res := range results {
		assert.Equal(t, StatusSkip, res.Status)
	}
}
