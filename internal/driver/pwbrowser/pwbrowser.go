// Package pwbrowser drives Chromium through Playwright.
package pwbrowser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/v0xg/flowcheck/internal/driver"
	"github.com/v0xg/flowcheck/internal/locator"
	"github.com/v0xg/flowcheck/internal/logging"
)

// Options configures the browser.
type Options struct {
	Width    int
	Height   int
	Headless bool
	// Install downloads the Playwright driver and Chromium before launch.
	Install bool
}

// Launcher owns the Playwright driver and one Chromium instance.
type Launcher struct {
	opts Options

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
}

var _ driver.Factory = (*Launcher)(nil)

// NewLauncher creates a launcher; Playwright starts on the first session.
func NewLauncher(opts Options) *Launcher {
	if opts.Width == 0 {
		opts.Width = 1280
	}
	if opts.Height == 0 {
		opts.Height = 720
	}
	return &Launcher{opts: opts}
}

func (l *Launcher) connect() (playwright.Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.browser != nil {
		return l.browser, nil
	}

	if l.opts.Install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	logging.Info("Playwright", "chromium started (headless=%t)", l.opts.Headless)
	l.pw = pw
	l.browser = browser
	return browser, nil
}

// NewSession opens a page in a fresh browser context.
func (l *Launcher) NewSession(ctx context.Context) (driver.Session, error) {
	browser, err := l.connect()
	if err != nil {
		return nil, err
	}
	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: l.opts.Width, Height: l.opts.Height},
	})
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	return &Session{context: bctx, page: page}, nil
}

// Close stops Chromium and the Playwright driver.
func (l *Launcher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.browser == nil {
		return nil
	}
	err := l.browser.Close()
	if stopErr := l.pw.Stop(); err == nil {
		err = stopErr
	}
	l.browser = nil
	l.pw = nil
	return err
}

// Session wraps one Playwright page.
type Session struct {
	context playwright.BrowserContext
	page    playwright.Page
}

var _ driver.Session = (*Session)(nil)

func selector(loc locator.Locator) (string, error) {
	switch loc.Strategy() {
	case locator.CSS:
		return "css=" + loc.Selector(), nil
	case locator.XPath:
		return "xpath=" + loc.Selector(), nil
	default:
		return "", driver.Unsupported("playwright", loc.Strategy())
	}
}

// timeout converts the context deadline into Playwright's millisecond
// timeout. Without a deadline Playwright's default applies.
func timeout(ctx context.Context) *float64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	ms := float64(time.Until(deadline).Milliseconds())
	if ms < 1 {
		ms = 1
	}
	return playwright.Float(ms)
}

// FindElements counts the locator's matches and returns one Element per
// index. Elements are re-resolved on every call.
func (s *Session) FindElements(ctx context.Context, loc locator.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel, err := selector(loc)
	if err != nil {
		return nil, err
	}
	all := s.page.Locator(sel)
	n, err := all.Count()
	if err != nil {
		return nil, err
	}
	out := make([]driver.Element, n)
	for i := range out {
		out[i] = &Element{loc: all.Nth(i)}
	}
	return out, nil
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   timeout(ctx),
	})
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// URL returns the page's current URL.
func (s *Session) URL(ctx context.Context) (string, error) {
	return s.page.URL(), ctx.Err()
}

// Screenshot captures the viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	return s.page.Screenshot(playwright.PageScreenshotOptions{
		Type:    playwright.ScreenshotTypePng,
		Timeout: timeout(ctx),
	})
}

// Close closes the page and its browser context.
func (s *Session) Close() error {
	_ = s.page.Close()
	return s.context.Close()
}

// Element is the nth match of a Playwright locator.
type Element struct {
	loc playwright.Locator
}

var _ driver.Pointer = (*Element)(nil)

// State reports Detached once the nth match is gone.
func (e *Element) State(ctx context.Context) (driver.State, error) {
	if err := ctx.Err(); err != nil {
		return driver.State{}, err
	}
	n, err := e.loc.Count()
	if err != nil {
		return driver.State{}, err
	}
	if n == 0 {
		return driver.Detached, nil
	}
	visible, err := e.loc.IsVisible()
	if err != nil {
		return driver.State{}, err
	}
	enabled, err := e.loc.IsEnabled(playwright.LocatorIsEnabledOptions{Timeout: timeout(ctx)})
	if err != nil {
		return driver.State{}, err
	}
	return driver.State{Attached: true, Visible: visible, Enabled: enabled}, nil
}

// Act maps kind onto the Playwright locator action of the same name.
func (e *Element) Act(ctx context.Context, kind driver.ActionKind, payload string) error {
	switch kind {
	case driver.Click:
		return e.loc.Click(playwright.LocatorClickOptions{Timeout: timeout(ctx)})
	case driver.Fill:
		return e.loc.Fill(payload, playwright.LocatorFillOptions{Timeout: timeout(ctx)})
	case driver.Check:
		return e.loc.Check(playwright.LocatorCheckOptions{Timeout: timeout(ctx)})
	case driver.Select:
		labels := []string{payload}
		_, err := e.loc.SelectOption(playwright.SelectOptionValues{Labels: &labels},
			playwright.LocatorSelectOptionOptions{Timeout: timeout(ctx)})
		return err
	default:
		return driver.Unsupported("playwright", kind)
	}
}

// Text returns the element's text content.
func (e *Element) Text(ctx context.Context) (string, error) {
	return e.loc.TextContent(playwright.LocatorTextContentOptions{Timeout: timeout(ctx)})
}

// Center returns the middle of the element's bounding box.
func (e *Element) Center(ctx context.Context) (int, int, error) {
	box, err := e.loc.BoundingBox(playwright.LocatorBoundingBoxOptions{Timeout: timeout(ctx)})
	if err != nil {
		return 0, 0, err
	}
	if box == nil {
		return 0, 0, fmt.Errorf("element has no bounding box")
	}
	return int(box.X + box.Width/2), int(box.Y + box.Height/2), nil
}
