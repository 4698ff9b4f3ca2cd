package cleanup

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/v0xg/flowcheck/internal/logging"
)

func TestRun_Success(t *testing.T) {
	called := false
	out := Run(context.Background(), "delete user", time.Second, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.Equal(t, Done, out)
	assert.True(t, called)
}

func TestRun_ErrorIsSwallowedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	restore := logging.SetOutputForTests(&buf)
	defer restore()

	out := Run(context.Background(), "delete user", time.Second, func(ctx context.Context) error {
		return errors.New("account not found")
	})
	assert.Equal(t, Failed, out)
	assert.Contains(t, buf.String(), "account not found")
	assert.Contains(t, buf.String(), "subsystem=Cleanup")
}

func TestRun_PanicIsRecovered(t *testing.T) {
	assert.NotPanics(t, func() {
		out := Run(context.Background(), "delete user", time.Second, func(ctx context.Context) error {
			panic("driver gone")
		})
		assert.Equal(t, Failed, out)
	})
}

func TestRun_AlwaysFailingTeardownIsBounded(t *testing.T) {
	const timeout = 50 * time.Millisecond

	for _, fn := range []func(ctx context.Context) error{
		func(ctx context.Context) error { return errors.New("boom") },
		func(ctx context.Context) error { panic("boom") },
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
		func(ctx context.Context) error {
			time.Sleep(time.Hour)
			return nil
		},
	} {
		start := time.Now()
		out := Run(context.Background(), "teardown", timeout, fn)
		assert.NotEqual(t, Done, out)
		assert.Less(t, time.Since(start), timeout+time.Second)
	}
}

func TestRun_RunsAfterParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	out := Run(ctx, "delete user", time.Second, func(ctx context.Context) error {
		called = true
		return ctx.Err()
	})
	assert.Equal(t, Done, out)
	assert.True(t, called)
}
