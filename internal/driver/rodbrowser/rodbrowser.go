// Package rodbrowser drives Chromium through go-rod.
package rodbrowser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/v0xg/flowcheck/internal/driver"
	"github.com/v0xg/flowcheck/internal/locator"
	"github.com/v0xg/flowcheck/internal/logging"
)

// Options configures the browser.
type Options struct {
	Width      int
	Height     int
	Headless   bool
	ProfileDir string // Chrome/Chromium profile directory for authenticated sessions
	// SettleTimeout bounds the network-idle wait after navigation.
	SettleTimeout time.Duration
}

// Launcher owns one Chromium process and hands out isolated sessions.
type Launcher struct {
	opts Options

	mu      sync.Mutex
	browser *rod.Browser
}

var _ driver.Factory = (*Launcher)(nil)

// NewLauncher creates a launcher; Chromium starts on the first session.
func NewLauncher(opts Options) *Launcher {
	if opts.Width == 0 {
		opts.Width = 1280
	}
	if opts.Height == 0 {
		opts.Height = 720
	}
	if opts.SettleTimeout == 0 {
		opts.SettleTimeout = 5 * time.Second
	}
	return &Launcher{opts: opts}
}

func (l *Launcher) connect() (*rod.Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.browser != nil {
		return l.browser, nil
	}

	lc := launcher.New().Headless(l.opts.Headless)
	if path, found := launcher.LookPath(); found {
		lc = lc.Bin(path)
	}
	if l.opts.ProfileDir != "" {
		lc = lc.UserDataDir(l.opts.ProfileDir)
	}
	u, err := lc.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chromium: %w", err)
	}
	logging.Info("Rod", "chromium started (headless=%t)", l.opts.Headless)
	l.browser = browser
	return browser, nil
}

// NewSession opens a page in its own incognito context so parallel
// scenarios never share cookies.
func (l *Launcher) NewSession(ctx context.Context) (driver.Session, error) {
	browser, err := l.connect()
	if err != nil {
		return nil, err
	}
	incognito, err := browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             l.opts.Width,
		Height:            l.opts.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	return &Session{context: incognito, page: page, settle: l.opts.SettleTimeout}, nil
}

// Close shuts Chromium down.
func (l *Launcher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.browser == nil {
		return nil
	}
	err := l.browser.Close()
	l.browser = nil
	return err
}

// Session wraps one rod page.
type Session struct {
	context *rod.Browser
	page    *rod.Page
	settle  time.Duration
}

var (
	_ driver.Session   = (*Session)(nil)
	_ driver.Inspector = (*Session)(nil)
)

// Page returns the underlying rod page.
func (s *Session) Page() *rod.Page {
	return s.page
}

// FindElements resolves CSS and XPath locators on the page. Other
// strategies are unsupported.
func (s *Session) FindElements(ctx context.Context, loc locator.Locator) ([]driver.Element, error) {
	page := s.page.Context(ctx)

	var (
		els rod.Elements
		err error
	)
	switch loc.Strategy() {
	case locator.CSS:
		els, err = page.Elements(loc.Selector())
	case locator.XPath:
		els, err = page.ElementsX(loc.Selector())
	default:
		return nil, driver.Unsupported("rod", loc.Strategy())
	}
	if err != nil {
		return nil, err
	}

	out := make([]driver.Element, len(els))
	for i, el := range els {
		out[i] = &Element{el: el}
	}
	return out, nil
}

// Navigate loads url and waits for the load event and a short network-idle
// window so client-rendered pages have their elements.
func (s *Session) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	// Persistent connections (websockets, polling) never go idle.
	page.Timeout(s.settle).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()
	return nil
}

// URL returns the page location as the browser reports it.
func (s *Session) URL(ctx context.Context) (string, error) {
	res, err := s.page.Context(ctx).Eval(`() => window.location.href`)
	if err != nil {
		return "", err
	}
	return res.Value.String(), nil
}

// Screenshot captures the viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	return s.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// Close closes the page and its incognito context.
func (s *Session) Close() error {
	if s.page != nil {
		_ = s.page.Close()
	}
	if s.context != nil {
		return s.context.Close()
	}
	return nil
}

// Element wraps one rod element.
type Element struct {
	el *rod.Element
}

var _ driver.Pointer = (*Element)(nil)

// State reads attachment and the disabled property in one evaluation.
// A detached element reports driver.Detached.
func (e *Element) State(ctx context.Context) (driver.State, error) {
	el := e.el.Context(ctx)
	res, err := el.Eval(`() => ({attached: this.isConnected, enabled: !this.disabled})`)
	if err != nil {
		return driver.State{}, err
	}
	if !res.Value.Get("attached").Bool() {
		return driver.Detached, nil
	}
	visible, err := el.Visible()
	if err != nil {
		return driver.State{}, err
	}
	return driver.State{
		Attached: true,
		Visible:  visible,
		Enabled:  res.Value.Get("enabled").Bool(),
	}, nil
}

// Act performs kind. Fill replaces the current value and Check clicks only
// an unchecked box.
func (e *Element) Act(ctx context.Context, kind driver.ActionKind, payload string) error {
	el := e.el.Context(ctx)
	switch kind {
	case driver.Click:
		return el.Click(proto.InputMouseButtonLeft, 1)
	case driver.Fill:
		// Replace any existing value.
		if err := el.SelectAllText(); err != nil {
			return err
		}
		return el.Input(payload)
	case driver.Check:
		res, err := el.Eval(`() => this.checked === true`)
		if err != nil {
			return err
		}
		if res.Value.Bool() {
			return nil
		}
		return el.Click(proto.InputMouseButtonLeft, 1)
	case driver.Select:
		return el.Select([]string{payload}, true, rod.SelectorTypeText)
	default:
		return driver.Unsupported("rod", kind)
	}
}

// Text returns the element's rendered text.
func (e *Element) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

// Center returns the centre of the element's first quad.
func (e *Element) Center(ctx context.Context) (int, int, error) {
	box, err := e.el.Context(ctx).Shape()
	if err != nil {
		return 0, 0, err
	}
	if len(box.Quads) == 0 {
		return 0, 0, fmt.Errorf("element has no shape")
	}
	quad := box.Quads[0]
	x := int((quad[0] + quad[2] + quad[4] + quad[6]) / 4)
	y := int((quad[1] + quad[3] + quad[5] + quad[7]) / 4)
	return x, y, nil
}
