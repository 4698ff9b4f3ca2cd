package appium

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/flowcheck/internal/driver"
	"github.com/v0xg/flowcheck/internal/errs"
	"github.com/v0xg/flowcheck/internal/executor"
	"github.com/v0xg/flowcheck/internal/locator"
	"github.com/v0xg/flowcheck/internal/pages"
)

const sessionID = "test-session"

type view struct {
	displayed, enabled, selected bool
	text                         string
	x, y, w, h                   int
}

// fakeAppium is a minimal Appium 1.x server over a flat view tree.
type fakeAppium struct {
	mu       sync.Mutex
	views    map[string]*view
	lookup   map[string][]string // "using|value" -> view ids
	caps     map[string]any
	finds    []string
	commands []string
	deleted  bool
}

func newFakeAppium(t *testing.T) (*fakeAppium, string) {
	t.Helper()
	f := &fakeAppium{views: map[string]*view{}, lookup: map[string][]string{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /wd/hub/session", f.createSession)
	mux.HandleFunc("DELETE /wd/hub/session/{sid}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.deleted = true
		f.mu.Unlock()
		reply(w, nil)
	})
	mux.HandleFunc("POST /wd/hub/session/{sid}/elements", f.findElements)
	mux.HandleFunc("GET /wd/hub/session/{sid}/screenshot", func(w http.ResponseWriter, r *http.Request) {
		reply(w, base64.StdEncoding.EncodeToString([]byte("png-bytes")))
	})
	mux.HandleFunc("GET /wd/hub/session/{sid}/element/{id}/{prop}", f.property)
	mux.HandleFunc("POST /wd/hub/session/{sid}/element/{id}/{cmd}", f.command)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv.URL + "/wd/hub"
}

func (f *fakeAppium) add(using, value string, ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if f.views[id] == nil {
			f.views[id] = &view{displayed: true, enabled: true}
		}
	}
	f.lookup[using+"|"+value] = ids
}

func (f *fakeAppium) view(id string) *view {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.views[id]
}

func (f *fakeAppium) update(id string, fn func(v *view)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f.views[id])
}

func (f *fakeAppium) get(id string) view {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.views[id]
}

func (f *fakeAppium) sent() (finds, commands []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.finds...), append([]string(nil), f.commands...)
}

func reply(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"sessionId": sessionID, "status": 0, "value": value})
}

func fail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": 10, "value": map[string]any{"message": msg}})
}

func (f *fakeAppium) createSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DesiredCapabilities map[string]any `json:"desiredCapabilities"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	f.mu.Lock()
	f.caps = body.DesiredCapabilities
	f.mu.Unlock()
	reply(w, map[string]any{"sessionId": sessionID})
}

func (f *fakeAppium) findElements(w http.ResponseWriter, r *http.Request) {
	var sel struct{ Using, Value string }
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	f.mu.Lock()
	f.finds = append(f.finds, sel.Using+"|"+sel.Value)
	ids := f.lookup[sel.Using+"|"+sel.Value]
	f.mu.Unlock()

	out := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]string{"ELEMENT": id})
	}
	reply(w, out)
}

func (f *fakeAppium) property(w http.ResponseWriter, r *http.Request) {
	v := f.view(r.PathValue("id"))
	if v == nil {
		fail(w, http.StatusNotFound, "stale element reference")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.PathValue("prop") {
	case "displayed":
		reply(w, v.displayed)
	case "enabled":
		reply(w, v.enabled)
	case "selected":
		reply(w, v.selected)
	case "text":
		reply(w, v.text)
	case "location":
		reply(w, map[string]float64{"x": float64(v.x), "y": float64(v.y)})
	case "size":
		reply(w, map[string]float64{"width": float64(v.w), "height": float64(v.h)})
	default:
		fail(w, http.StatusNotFound, "unknown property")
	}
}

func (f *fakeAppium) command(w http.ResponseWriter, r *http.Request) {
	id, cmd := r.PathValue("id"), r.PathValue("cmd")
	v := f.view(id)
	if v == nil {
		fail(w, http.StatusNotFound, "stale element reference")
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch cmd {
	case "click":
		v.selected = !v.selected
	case "clear":
		v.text = ""
	case "value":
		var body struct{ Value []string }
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			fail(w, http.StatusBadRequest, err.Error())
			return
		}
		v.text += strings.Join(body.Value, "")
	default:
		fail(w, http.StatusNotFound, "unknown command")
		return
	}
	f.commands = append(f.commands, id+" "+cmd)
	reply(w, nil)
}

func newSession(t *testing.T) (*fakeAppium, *Session) {
	t.Helper()
	fake, url := newFakeAppium(t)
	factory, err := NewFactory(Options{ServerURL: url, App: "/apps/wikipedia.apk"})
	require.NoError(t, err)
	s, err := factory.NewSession(context.Background())
	require.NoError(t, err)
	return fake, s.(*Session)
}

func TestNewFactory_RequiresServerURL(t *testing.T) {
	_, err := NewFactory(Options{})
	assert.Error(t, err)
}

func TestNewSession_SendsCapabilities(t *testing.T) {
	fake, _ := newSession(t)
	fake.mu.Lock()
	caps := fake.caps
	fake.mu.Unlock()

	assert.Equal(t, "Android", caps["platformName"])
	assert.Equal(t, "UiAutomator2", caps["automationName"])
	assert.Equal(t, true, caps["noReset"])
	assert.Equal(t, "/apps/wikipedia.apk", caps["app"])
}

func TestFindElements_Strategies(t *testing.T) {
	fake, s := newSession(t)
	ctx := context.Background()
	fake.add(usingA11yID, "Search Wikipedia", "1")
	fake.add(usingAndroidUI, `new UiSelector().resourceId("org.wikipedia.alpha:id/page_list_item_title")`, "2", "3")
	fake.add(usingXPath, `//android.widget.TextView`, "4")

	tests := []struct {
		name string
		loc  locator.Locator
		want int
	}{
		{"accessibility id", pages.SearchButton, 1},
		{"uiautomator", pages.SearchResult, 2},
		{"xpath", locator.ByXPath(`//android.widget.TextView`), 1},
		{"no match is empty", locator.ByA11yID("Nothing"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			els, err := s.FindElements(ctx, tt.loc)
			require.NoError(t, err)
			assert.Len(t, els, tt.want)
		})
	}

	finds, _ := fake.sent()
	assert.Contains(t, finds, `accessibility id|Search Wikipedia`)
	assert.Contains(t, finds, `-android uiautomator|new UiSelector().resourceId("org.wikipedia.alpha:id/page_list_item_title")`)

	_, err := s.FindElements(ctx, locator.ByCSS("#search"))
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
}

func TestElement_StateActText(t *testing.T) {
	fake, s := newSession(t)
	ctx := context.Background()
	fake.add(usingA11yID, "query", "7")
	fake.update("7", func(v *view) {
		v.enabled = false
		v.x, v.y, v.w, v.h = 10, 20, 100, 40
		v.text = "old"
	})

	els, err := s.FindElements(ctx, locator.ByA11yID("query"))
	require.NoError(t, err)
	el := els[0]

	st, err := el.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, driver.State{Attached: true, Visible: true, Enabled: false}, st)

	require.NoError(t, el.Act(ctx, driver.Fill, "Appium"))
	text, err := el.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Appium", text)

	require.NoError(t, el.Act(ctx, driver.Check, ""))
	require.NoError(t, el.Act(ctx, driver.Check, ""), "already checked")
	assert.True(t, fake.get("7").selected)
	_, commands := fake.sent()
	assert.Equal(t, []string{"7 clear", "7 value", "7 click"}, commands)

	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(el.Act(ctx, driver.Select, "x")))

	x, y, err := el.(driver.Pointer).Center(ctx)
	require.NoError(t, err)
	assert.Equal(t, 60, x)
	assert.Equal(t, 40, y)
}

func TestElement_StaleIsAnError(t *testing.T) {
	fake, s := newSession(t)
	fake.add(usingA11yID, "ghost", "9")
	els, err := s.FindElements(context.Background(), locator.ByA11yID("ghost"))
	require.NoError(t, err)

	fake.mu.Lock()
	delete(fake.views, "9")
	fake.mu.Unlock()

	_, err = els[0].State(context.Background())
	assert.ErrorContains(t, err, "stale element reference")
}

func TestSession_ScreenshotNavigateClose(t *testing.T) {
	fake, s := newSession(t)
	ctx := context.Background()

	png, err := s.Screenshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), png)

	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(s.Navigate(ctx, "https://example.com")))
	_, err = s.URL(ctx)
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))

	require.NoError(t, s.Close())
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.True(t, fake.deleted)
}

func TestWikipediaHome_OverAppium(t *testing.T) {
	fake, s := newSession(t)
	fake.add(usingA11yID, "Search Wikipedia", "search")
	fake.add(usingAndroidUI, pages.SearchInput.Selector(), "input")

	defaults := executor.WaitSpec{Timeout: time.Second, PollInterval: 10 * time.Millisecond, State: executor.Visible}
	exec, err := executor.New(s, defaults)
	require.NoError(t, err)
	home := pages.NewWikipediaHome(exec, time.Second)

	ctx := context.Background()
	require.NoError(t, home.TapSearch(ctx))
	require.NoError(t, home.EnterQuery(ctx, "Appium"))

	assert.Equal(t, "Appium", fake.get("input").text)
	_, commands := fake.sent()
	assert.Equal(t, []string{"search click", "input clear", "input value"}, commands)
}
