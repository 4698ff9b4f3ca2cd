// Package drivertest provides a scripted in-memory driver.Session for
// tests. Elements can become visible after a delay on the session clock,
// and actions can mutate the tree to simulate navigation.
package drivertest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"time"

	"github.com/v0xg/flowcheck/internal/clock"
	"github.com/v0xg/flowcheck/internal/driver"
	"github.com/v0xg/flowcheck/internal/locator"
)

// Action is one recorded interaction.
type Action struct {
	Kind    driver.ActionKind
	Payload string
}

// Session is a scripted driver.Session.
type Session struct {
	mu         sync.Mutex
	clock      clock.Clock
	start      time.Time
	tree       map[string][]*Element
	finds      map[string]int
	url        string
	onNavigate func(s *Session, url string)
	findErr    error
	closed     bool
}

var (
	_ driver.Session = (*Session)(nil)
	_ driver.Pointer = (*Element)(nil)
)

// New creates an empty session whose delays are measured on clk.
func New(clk clock.Clock) *Session {
	return &Session{
		clock: clk,
		start: clk.Now(),
		tree:  make(map[string][]*Element),
		finds: make(map[string]int),
	}
}

func key(loc locator.Locator) string {
	return string(loc.Strategy()) + "=" + loc.Selector()
}

// Set replaces the elements matched by loc.
func (s *Session) Set(loc locator.Locator, els ...*Element) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, el := range els {
		el.session = s
	}
	s.tree[key(loc)] = els
	return s
}

// Remove detaches every element matched by loc.
func (s *Session) Remove(loc locator.Locator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, el := range s.tree[key(loc)] {
		el.mu.Lock()
		el.detached = true
		el.mu.Unlock()
	}
	delete(s.tree, key(loc))
}

// FailFinds makes every FindElements call return err until cleared with nil.
func (s *Session) FailFinds(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findErr = err
}

// OnNavigate installs a hook run after each Navigate.
func (s *Session) OnNavigate(fn func(s *Session, url string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onNavigate = fn
}

// SetURL changes the current URL without running hooks.
func (s *Session) SetURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = url
}

// Finds returns how many times loc was looked up.
func (s *Session) Finds(loc locator.Locator) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finds[key(loc)]
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// FindElements counts the lookup and returns the elements registered
// under loc, or the configured find error.
func (s *Session) FindElements(ctx context.Context, loc locator.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds[key(loc)]++
	if s.findErr != nil {
		return nil, s.findErr
	}
	els := s.tree[key(loc)]
	out := make([]driver.Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

// Navigate records url and runs the navigate hook.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.url = url
	hook := s.onNavigate
	s.mu.Unlock()
	if hook != nil {
		hook(s, url)
	}
	return nil
}

// URL returns the last navigated URL.
func (s *Session) URL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url, nil
}

// Screenshot returns a tiny solid PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 36))
	for y := 0; y < 36; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 240, G: 240, B: 240, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close marks the session closed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Session) sinceStart() time.Duration {
	return s.clock.Now().Sub(s.start)
}

// Elapsed is the session clock time since New, the reference for
// VisibleAfter.
func (s *Session) Elapsed() time.Duration {
	return s.sinceStart()
}

// Element is a scripted element. It starts attached, visible and enabled.
type Element struct {
	mu           sync.Mutex
	session      *Session
	text         string
	value        string
	checked      bool
	visible      bool
	enabled      bool
	detached     bool
	visibleAfter time.Duration
	delayed      bool
	stateErr     error
	actErr       error
	x, y         int
	actions      []Action
	hooks        map[driver.ActionKind]func(s *Session)
}

// NewElement creates a visible, enabled element with the given text.
func NewElement(text string) *Element {
	return &Element{text: text, visible: true, enabled: true, x: 10, y: 10}
}

// Hidden marks the element as not visible.
func (e *Element) Hidden() *Element {
	e.visible = false
	return e
}

// Disabled marks the element as disabled.
func (e *Element) Disabled() *Element {
	e.enabled = false
	return e
}

// VisibleAfter hides the element until d has passed on the session clock.
func (e *Element) VisibleAfter(d time.Duration) *Element {
	e.visible = false
	e.delayed = true
	e.visibleAfter = d
	return e
}

// At sets the element centre reported through driver.Pointer.
func (e *Element) At(x, y int) *Element {
	e.x, e.y = x, y
	return e
}

// FailState makes State return err.
func (e *Element) FailState(err error) *Element {
	e.stateErr = err
	return e
}

// FailActs makes Act return err.
func (e *Element) FailActs(err error) *Element {
	e.actErr = err
	return e
}

// OnAct runs fn after each successful action of the given kind.
func (e *Element) OnAct(kind driver.ActionKind, fn func(s *Session)) *Element {
	if e.hooks == nil {
		e.hooks = make(map[driver.ActionKind]func(s *Session))
	}
	e.hooks[kind] = fn
	return e
}

// Show makes the element visible immediately.
func (e *Element) Show() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.visible = true
}

// Actions returns the recorded actions.
func (e *Element) Actions() []Action {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Action(nil), e.actions...)
}

// Value returns the last filled or selected value.
func (e *Element) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Checked reports whether Check was applied.
func (e *Element) Checked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checked
}

// State reports the configured state. A delayed element turns visible
// once the session clock passes its delay.
func (e *Element) State(ctx context.Context) (driver.State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stateErr != nil {
		return driver.State{}, e.stateErr
	}
	if e.detached {
		return driver.Detached, nil
	}
	visible := e.visible
	if e.delayed && e.session != nil && e.session.sinceStart() >= e.visibleAfter {
		visible = true
	}
	return driver.State{Attached: true, Visible: visible, Enabled: e.enabled}, nil
}

// Act records the action, applies it to the element and runs its hook.
// Acting on a detached element fails.
func (e *Element) Act(ctx context.Context, kind driver.ActionKind, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	if e.actErr != nil {
		err := e.actErr
		e.mu.Unlock()
		return err
	}
	if e.detached {
		e.mu.Unlock()
		return fmt.Errorf("element is detached")
	}
	e.actions = append(e.actions, Action{Kind: kind, Payload: payload})
	switch kind {
	case driver.Fill, driver.Select:
		e.value = payload
	case driver.Check:
		e.checked = true
	}
	hook := e.hooks[kind]
	s := e.session
	e.mu.Unlock()

	if hook != nil {
		hook(s)
	}
	return nil
}

// Text returns the configured text.
func (e *Element) Text(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text, nil
}

// Center returns the configured position.
func (e *Element) Center(ctx context.Context) (int, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.x, e.y, nil
}
