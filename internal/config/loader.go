package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/v0xg/flowcheck/internal/logging"
)

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored; variables already set win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			logging.Debug("Config", "loaded environment from %s", p)
		}
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path tries DefaultFileName and falls back to defaults when it
// does not exist; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
		}
		logging.Info("Config", "loaded configuration from %s", path)
	case errors.Is(err, os.ErrNotExist) && !explicit:
		logging.Debug("Config", "no %s found, using defaults", path)
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from FLOWCHECK_* variables. Every malformed
// value is reported in one ValidationError.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var v ValidationError

	str := func(key string, dst *string) {
		if s, ok := lookup(key); ok {
			*dst = s
		}
	}
	boolean := func(key string, dst *bool) {
		if s, ok := lookup(key); ok {
			b, err := strconv.ParseBool(s)
			if err != nil {
				v.add("%s: %q is not a boolean", key, s)
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if s, ok := lookup(key); ok {
			n, err := strconv.Atoi(s)
			if err != nil {
				v.add("%s: %q is not an integer", key, s)
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if s, ok := lookup(key); ok {
			d, err := time.ParseDuration(s)
			if err != nil {
				v.add("%s: %q is not a duration", key, s)
				return
			}
			*dst = d
		}
	}

	str("FLOWCHECK_BASE_URL", &c.BaseURL)
	str("FLOWCHECK_API_URL", &c.APIURL)
	str("FLOWCHECK_DRIVER", &c.Driver)
	boolean("FLOWCHECK_HEADLESS", &c.Headless)
	str("FLOWCHECK_PROFILE_DIR", &c.ProfileDir)
	duration("FLOWCHECK_WAIT_TIMEOUT", &c.Wait.Timeout)
	duration("FLOWCHECK_POLL_INTERVAL", &c.Wait.PollInterval)
	duration("FLOWCHECK_LONG_WAIT", &c.Wait.Long)
	duration("FLOWCHECK_CLEANUP_TIMEOUT", &c.Wait.Cleanup)
	duration("FLOWCHECK_API_TIMEOUT", &c.Wait.API)
	integer("FLOWCHECK_PARALLEL", &c.Parallel)
	str("FLOWCHECK_APPIUM_URL", &c.Appium.URL)
	str("FLOWCHECK_APPIUM_APP", &c.Appium.App)
	str("FLOWCHECK_ARTIFACTS", &c.Artifacts)
	boolean("FLOWCHECK_TRACE", &c.Trace)
	str("FLOWCHECK_LOG_LEVEL", &c.LogLevel)

	if v.HasIssues() {
		return &v
	}
	return nil
}
