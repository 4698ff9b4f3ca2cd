// Package config loads run settings from a YAML file, FLOWCHECK_*
// environment variables and command-line flags, in that order.
package config

import (
	"time"

	"github.com/v0xg/flowcheck/internal/executor"
)

// Supported browser drivers.
const (
	DriverRod        = "rod"
	DriverPlaywright = "playwright"
)

// DefaultFileName is read from the working directory when no path is given.
const DefaultFileName = "flowcheck.yaml"

// Config holds everything a run needs.
type Config struct {
	BaseURL    string   `yaml:"baseURL"`
	APIURL     string   `yaml:"apiURL"`
	Driver     string   `yaml:"driver"`
	Headless   bool     `yaml:"headless"`
	Viewport   Viewport `yaml:"viewport"`
	ProfileDir string   `yaml:"profileDir"`
	Wait       Wait     `yaml:"wait"`
	Parallel   int      `yaml:"parallel"`
	Appium     Appium   `yaml:"appium"`
	Artifacts  string   `yaml:"artifacts"`
	Trace      bool     `yaml:"trace"`
	LogLevel   string   `yaml:"logLevel"`
}

// Viewport is the browser window size.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Wait holds the timing knobs. Durations use Go syntax ("5s", "100ms").
type Wait struct {
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"pollInterval"`
	// Long is used for slow transitions such as post-login redirects.
	Long    time.Duration `yaml:"long"`
	Cleanup time.Duration `yaml:"cleanup"`
	API     time.Duration `yaml:"api"`
}

// Appium configures the mobile scenarios. An empty URL skips them.
type Appium struct {
	URL          string         `yaml:"url"`
	App          string         `yaml:"app"`
	Capabilities map[string]any `yaml:"capabilities"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:  "https://automationexercise.com",
		APIURL:   "https://automationexercise.com",
		Driver:   DriverRod,
		Headless: true,
		Viewport: Viewport{Width: 1280, Height: 720},
		Wait: Wait{
			Timeout:      5 * time.Second,
			PollInterval: 100 * time.Millisecond,
			Long:         10 * time.Second,
			Cleanup:      5 * time.Second,
			API:          30 * time.Second,
		},
		Parallel:  1,
		Artifacts: "artifacts",
		LogLevel:  "info",
	}
}

// WaitSpec is the executor default derived from Wait.
func (c Config) WaitSpec() executor.WaitSpec {
	return executor.WaitSpec{
		Timeout:      c.Wait.Timeout,
		PollInterval: c.Wait.PollInterval,
		State:        executor.Visible,
	}
}
