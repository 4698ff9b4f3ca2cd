// Package pages holds the page objects for the store's web UI and the
// Wikipedia mobile app. Page objects own locators and flows; assertions
// stay in the scenarios.
package pages

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/v0xg/flowcheck/internal/driver"
	"github.com/v0xg/flowcheck/internal/errs"
	"github.com/v0xg/flowcheck/internal/executor"
)

// UI bundles what a web page object needs.
type UI struct {
	Session driver.Session
	Exec    *executor.Executor
	BaseURL string
	// LongWait bounds slow transitions such as post-login redirects.
	LongWait time.Duration
}

// Open navigates to path under BaseURL.
func (u UI) Open(ctx context.Context, path string) error {
	return u.Session.Navigate(ctx, strings.TrimRight(u.BaseURL, "/")+path)
}

// long returns the executor defaults stretched to LongWait.
func (u UI) long(state executor.TargetState) executor.WaitSpec {
	spec := u.Exec.Defaults().For(state)
	if u.LongWait > spec.Timeout {
		spec = spec.WithTimeout(u.LongWait)
	}
	return spec
}

// WaitForURL polls the session URL until it matches pattern, on the
// executor's poll schedule. A timeout names the last URL seen.
func (u UI) WaitForURL(ctx context.Context, pattern *regexp.Regexp, timeout time.Duration) error {
	var last string
	_, err := u.Exec.Poll(ctx, u.Exec.Defaults().WithTimeout(timeout), fmt.Sprintf("url matching %s", pattern),
		func(ctx context.Context) (bool, error) {
			url, err := u.Session.URL(ctx)
			if err != nil {
				return false, err
			}
			last = url
			return pattern.MatchString(url), nil
		})
	if errs.Is(err, errs.WaitTimeout) {
		return errs.Wrap(errs.WaitTimeout, fmt.Sprintf("last url %q", last), err)
	}
	return err
}
