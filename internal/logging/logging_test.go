package logging

import (
	"bytes"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLog_SubsystemAndError(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutputForTests(&buf)
	defer restore()

	Info("Executor", "acted on %s", "#login")
	Error("API", errors.New("boom"), "verify login")

	out := buf.String()
	assert.Contains(t, out, "subsystem=Executor")
	assert.Contains(t, out, `msg="acted on #login"`)
	assert.Contains(t, out, "subsystem=API")
	assert.Contains(t, out, "error=boom")
}

func TestFormatForm_RedactsPassword(t *testing.T) {
	form := url.Values{}
	form.Set("email", "a@b.test")
	form.Set("password", "Test@1234")

	out := FormatForm(form)
	assert.Equal(t, "email=a@b.test password=[REDACTED]", out)
	assert.NotContains(t, out, "Test@1234")
	assert.Equal(t, "{}", FormatForm(nil))
}
