package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/v0xg/flowcheck/internal/errs"
	"github.com/v0xg/flowcheck/internal/logging"
)

// ValidationError collects every problem found in a configuration.
type ValidationError struct {
	Issues []string
}

func (v *ValidationError) add(format string, args ...any) {
	v.Issues = append(v.Issues, fmt.Sprintf(format, args...))
}

// HasIssues reports whether anything was recorded.
func (v *ValidationError) HasIssues() bool {
	return len(v.Issues) > 0
}

func (v *ValidationError) Error() string {
	if len(v.Issues) == 1 {
		return "invalid configuration: " + v.Issues[0]
	}
	return fmt.Sprintf("invalid configuration (%d issues): %s", len(v.Issues), strings.Join(v.Issues, "; "))
}

func (v *ValidationError) Code() errs.Code { return errs.InvalidArgument }

// Validate checks c and returns a *ValidationError listing every issue.
func (c Config) Validate() error {
	var v ValidationError

	checkURL := func(field, raw string, required bool) {
		if raw == "" {
			if required {
				v.add("%s is required", field)
			}
			return
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			v.add("%s: %q is not an absolute http(s) URL", field, raw)
		}
	}
	checkURL("baseURL", c.BaseURL, true)
	checkURL("apiURL", c.APIURL, true)
	checkURL("appium.url", c.Appium.URL, false)

	switch c.Driver {
	case DriverRod, DriverPlaywright:
	default:
		v.add("driver: %q is not one of %s, %s", c.Driver, DriverRod, DriverPlaywright)
	}

	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		v.add("viewport: %dx%d must be positive", c.Viewport.Width, c.Viewport.Height)
	}
	if err := c.WaitSpec().Validate(); err != nil {
		v.add("wait: %v", err)
	}
	if c.Wait.Long < c.Wait.PollInterval {
		v.add("wait.long: %dms is shorter than the poll interval", c.Wait.Long.Milliseconds())
	}
	if c.Wait.Cleanup <= 0 {
		v.add("wait.cleanup must be positive")
	}
	if c.Wait.API <= 0 {
		v.add("wait.api must be positive")
	}
	if c.Parallel < 1 {
		v.add("parallel: %d must be at least 1", c.Parallel)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		v.add("logLevel: %v", err)
	}

	if v.HasIssues() {
		return &v
	}
	return nil
}
