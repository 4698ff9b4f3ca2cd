// Package trace records a screenshot before every UI action so a failed
// scenario can be replayed as an animated GIF with the cursor drawn on its
// targets.
package trace

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/v0xg/flowcheck/internal/driver"
	"github.com/v0xg/flowcheck/internal/executor"
	"github.com/v0xg/flowcheck/internal/locator"
	"github.com/v0xg/flowcheck/internal/logging"
)

// Step is one recorded action.
type Step struct {
	Locator    string
	Kind       driver.ActionKind
	X, Y       int
	HasPointer bool
	Err        error
	Frame      image.Image
}

// Recorder captures steps from an executor. It is safe for concurrent use.
type Recorder struct {
	session driver.Session

	mu    sync.Mutex
	steps []Step
}

var _ executor.Observer = (*Recorder)(nil)

// NewRecorder records frames from session.
func NewRecorder(session driver.Session) *Recorder {
	return &Recorder{session: session}
}

// BeforeAct captures the screen and the target's centre.
func (r *Recorder) BeforeAct(ctx context.Context, loc locator.Locator, el driver.Element, kind driver.ActionKind) {
	step := Step{Locator: loc.String(), Kind: kind}

	if p, ok := el.(driver.Pointer); ok {
		x, y, err := p.Center(ctx)
		if err == nil {
			step.X, step.Y, step.HasPointer = x, y, true
		}
	}

	frame, err := capture(ctx, r.session)
	if err != nil {
		logging.Debug("Trace", "screenshot before %s %s failed: %v", kind, loc, err)
	}
	step.Frame = frame

	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
}

// AfterAct attaches the action's outcome to its step.
func (r *Recorder) AfterAct(ctx context.Context, loc locator.Locator, kind driver.ActionKind, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.steps); n > 0 {
		r.steps[n-1].Err = err
	}
}

// Steps returns a copy of the recorded steps.
func (r *Recorder) Steps() []Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Step(nil), r.steps...)
}

// Frames returns the recorded frames with the cursor drawn in, skipping
// steps whose screenshot failed.
func (r *Recorder) Frames() []image.Image {
	var frames []image.Image
	for _, step := range r.Steps() {
		if step.Frame == nil {
			continue
		}
		frames = append(frames, drawCursorOnFrame(step.Frame, step))
	}
	return frames
}

// WriteGIF writes the recorded frames plus a final frame of the current
// screen to path and returns the file size. Nothing is written when no
// frame could be captured.
func (r *Recorder) WriteGIF(ctx context.Context, path string, opts GIFOptions) (int64, error) {
	frames := r.Frames()
	if final, err := capture(ctx, r.session); err == nil {
		frames = append(frames, final)
	}
	if len(frames) == 0 {
		return 0, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	size, err := encodeGIF(frames, path, opts)
	if err != nil {
		return 0, fmt.Errorf("write trace %s: %w", path, err)
	}
	return size, nil
}

// SaveScreenshot writes the current screen of session to path as PNG.
func SaveScreenshot(ctx context.Context, session driver.Session, path string) error {
	data, err := session.Screenshot(ctx)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func capture(ctx context.Context, session driver.Session) (image.Image, error) {
	data, err := session.Screenshot(ctx)
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(data))
}
