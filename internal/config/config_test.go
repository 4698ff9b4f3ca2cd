package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v0xg/flowcheck/internal/errs"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5*time.Second, cfg.Wait.Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Wait.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.Wait.Long)
	assert.Equal(t, DriverRod, cfg.Driver)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
baseURL: http://localhost:8080
driver: playwright
wait:
  timeout: 2s
  pollInterval: 50ms
parallel: 4
appium:
  url: http://127.0.0.1:4723/wd/hub
  capabilities:
    deviceName: Pixel
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, DriverPlaywright, cfg.Driver)
	assert.Equal(t, 2*time.Second, cfg.Wait.Timeout)
	assert.Equal(t, 50*time.Millisecond, cfg.Wait.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.Wait.Long, "unset fields keep defaults")
	assert.Equal(t, 4, cfg.Parallel)
	assert.Equal(t, "Pixel", cfg.Appium.Capabilities["deviceName"])
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wait: [unclosed"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, path)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"FLOWCHECK_BASE_URL":     "http://shop.test",
		"FLOWCHECK_HEADLESS":     "false",
		"FLOWCHECK_PARALLEL":     "3",
		"FLOWCHECK_WAIT_TIMEOUT": "7s",
		"FLOWCHECK_APPIUM_URL":   "http://device:4723/wd/hub",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://shop.test", cfg.BaseURL)
	assert.False(t, cfg.Headless)
	assert.Equal(t, 3, cfg.Parallel)
	assert.Equal(t, 7*time.Second, cfg.Wait.Timeout)
	assert.Equal(t, "http://device:4723/wd/hub", cfg.Appium.URL)
}

func TestApplyEnv_ReportsEveryMalformedValue(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"FLOWCHECK_HEADLESS":     "sometimes",
		"FLOWCHECK_PARALLEL":     "many",
		"FLOWCHECK_WAIT_TIMEOUT": "5",
	}))

	var v *ValidationError
	require.ErrorAs(t, err, &v)
	assert.Len(t, v.Issues, 3)
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"relative base URL", func(c *Config) { c.BaseURL = "/shop" }, "baseURL"},
		{"missing api URL", func(c *Config) { c.APIURL = "" }, "apiURL is required"},
		{"unknown driver", func(c *Config) { c.Driver = "selenium" }, "driver"},
		{"timeout shorter than poll", func(c *Config) { c.Wait.Timeout = 10 * time.Millisecond }, "shorter than poll interval"},
		{"zero poll", func(c *Config) { c.Wait.PollInterval = 0 }, "poll interval must be positive"},
		{"zero parallel", func(c *Config) { c.Parallel = 0 }, "parallel"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "logLevel"},
		{"bad appium URL", func(c *Config) { c.Appium.URL = "device:4723" }, "appium.url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_CollectsAllIssues(t *testing.T) {
	cfg := Default()
	cfg.Driver = ""
	cfg.Parallel = -1
	cfg.Wait.Cleanup = 0

	var v *ValidationError
	require.ErrorAs(t, cfg.Validate(), &v)
	assert.Len(t, v.Issues, 3)
	assert.Contains(t, v.Error(), "3 issues")
}
