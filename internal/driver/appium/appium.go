// Package appium drives a mobile app through an Appium server. Sessions
// are opened with agouti; element lookups go through agouti's WebDriver
// api package so the Appium strategies reach the server untranslated.
package appium

import (
	"context"
	"fmt"

	"github.com/sclevine/agouti"
	"github.com/sclevine/agouti/api"

	"github.com/v0xg/flowcheck/internal/driver"
	"github.com/v0xg/flowcheck/internal/locator"
	"github.com/v0xg/flowcheck/internal/logging"
)

// Options configures the Appium session.
type Options struct {
	ServerURL string
	// App is the path of the .apk to install, optional when the app is
	// already on the device.
	App          string
	Capabilities map[string]any
}

// DefaultCapabilities targets the Wikipedia alpha build on an Android 11
// emulator through UiAutomator2, keeping app data between sessions.
func DefaultCapabilities() map[string]any {
	return map[string]any{
		"platformName":    "Android",
		"platformVersion": "11.0",
		"deviceName":      "Android Emulator",
		"automationName":  "UiAutomator2",
		"noReset":         true,
		"fullReset":       false,
	}
}

// Appium locator strategies as sent in the "using" field.
const (
	usingA11yID    = "accessibility id"
	usingAndroidUI = "-android uiautomator"
	usingXPath     = "xpath"
)

// Factory opens one Appium session per NewSession call.
type Factory struct {
	opts Options
}

var _ driver.Factory = (*Factory)(nil)

// NewFactory validates opts and returns a factory.
func NewFactory(opts Options) (*Factory, error) {
	if opts.ServerURL == "" {
		return nil, fmt.Errorf("appium: server URL is required")
	}
	if opts.Capabilities == nil {
		opts.Capabilities = DefaultCapabilities()
	}
	return &Factory{opts: opts}, nil
}

func (f *Factory) capabilities() agouti.Capabilities {
	caps := agouti.NewCapabilities()
	for k, v := range f.opts.Capabilities {
		caps[k] = v
	}
	if f.opts.App != "" {
		caps["app"] = f.opts.App
	}
	return caps
}

// NewSession starts an Appium session with the configured capabilities.
func (f *Factory) NewSession(ctx context.Context) (driver.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := agouti.NewPage(f.opts.ServerURL, agouti.Desired(f.capabilities()))
	if err != nil {
		return nil, fmt.Errorf("appium: open session at %s: %w", f.opts.ServerURL, err)
	}
	logging.Info("Appium", "session opened at %s", f.opts.ServerURL)
	return &Session{page: page, wd: page.Session()}, nil
}

// Close is a no-op; each session owns its remote state.
func (f *Factory) Close() error { return nil }

// Session is one Appium session bound to the device.
type Session struct {
	page *agouti.Page
	wd   *api.Session
}

var _ driver.Session = (*Session)(nil)

func selector(loc locator.Locator) (api.Selector, error) {
	switch loc.Strategy() {
	case locator.A11yID:
		return api.Selector{Using: usingA11yID, Value: loc.Selector()}, nil
	case locator.AndroidUI:
		return api.Selector{Using: usingAndroidUI, Value: loc.Selector()}, nil
	case locator.XPath:
		return api.Selector{Using: usingXPath, Value: loc.Selector()}, nil
	}
	return api.Selector{}, driver.Unsupported("appium", loc.Strategy())
}

// FindElements resolves loc with the matching Appium strategy. CSS has no
// meaning in a native view tree and is rejected.
func (s *Session) FindElements(ctx context.Context, loc locator.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel, err := selector(loc)
	if err != nil {
		return nil, err
	}
	found, err := s.wd.GetElements(sel)
	if err != nil {
		return nil, fmt.Errorf("appium: find %s: %w", loc, err)
	}
	out := make([]driver.Element, len(found))
	for i, el := range found {
		out[i] = &Element{el: el}
	}
	return out, nil
}

// Navigate is not meaningful inside a native app.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return driver.Unsupported("appium", "navigate")
}

// URL is not meaningful inside a native app.
func (s *Session) URL(ctx context.Context) (string, error) {
	return "", driver.Unsupported("appium", "url")
}

// Screenshot returns the device screen as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.wd.GetScreenshot()
}

// Close ends the Appium session.
func (s *Session) Close() error {
	return s.page.Destroy()
}

// Element is one view on the device.
type Element struct {
	el *api.Element
}

var (
	_ driver.Element = (*Element)(nil)
	_ driver.Pointer = (*Element)(nil)
)

// State reports visibility and enablement. A found element is attached;
// a stale one surfaces as an error, which the executor treats as not ready.
func (e *Element) State(ctx context.Context) (driver.State, error) {
	if err := ctx.Err(); err != nil {
		return driver.State{}, err
	}
	visible, err := e.el.IsDisplayed()
	if err != nil {
		return driver.State{}, err
	}
	enabled, err := e.el.IsEnabled()
	if err != nil {
		return driver.State{}, err
	}
	return driver.State{Attached: true, Visible: visible, Enabled: enabled}, nil
}

// Act taps, types into or checks the view. Native views have no select
// element, so Select is unsupported.
func (e *Element) Act(ctx context.Context, kind driver.ActionKind, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch kind {
	case driver.Click:
		return e.el.Click()
	case driver.Fill:
		if err := e.el.Clear(); err != nil {
			return err
		}
		return e.el.Value(payload)
	case driver.Check:
		checked, err := e.el.IsSelected()
		if err != nil {
			return err
		}
		if checked {
			return nil
		}
		return e.el.Click()
	default:
		return driver.Unsupported("appium", kind)
	}
}

// Text returns the view's text.
func (e *Element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.el.GetText()
}

// Center returns the middle of the view's bounds in screen pixels.
func (e *Element) Center(ctx context.Context) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	x, y, err := e.el.GetLocation()
	if err != nil {
		return 0, 0, err
	}
	w, h, err := e.el.GetSize()
	if err != nil {
		return 0, 0, err
	}
	return x + w/2, y + h/2, nil
}
