package scenario

import (
	"errors"
	"fmt"

	"github.com/v0xg/flowcheck/internal/api"
	"github.com/v0xg/flowcheck/internal/config"
	"github.com/v0xg/flowcheck/internal/driver/appium"
	"github.com/v0xg/flowcheck/internal/driver/pwbrowser"
	"github.com/v0xg/flowcheck/internal/driver/rodbrowser"
	"github.com/v0xg/flowcheck/internal/logging"
)

// NewEnv builds the API client and driver factories described by cfg.
// The mobile factory is only created when an Appium URL is configured.
// Browsers start lazily, so an API-only run never launches one.
func NewEnv(cfg config.Config) (*Env, error) {
	env := &Env{
		Config: cfg,
		API:    api.NewClient(cfg.APIURL, cfg.Wait.API),
	}

	switch cfg.Driver {
	case config.DriverRod:
		env.Browser = rodbrowser.NewLauncher(rodbrowser.Options{
			Width:         cfg.Viewport.Width,
			Height:        cfg.Viewport.Height,
			Headless:      cfg.Headless,
			ProfileDir:    cfg.ProfileDir,
			SettleTimeout: cfg.Wait.Timeout,
		})
	case config.DriverPlaywright:
		env.Browser = pwbrowser.NewLauncher(pwbrowser.Options{
			Width:    cfg.Viewport.Width,
			Height:   cfg.Viewport.Height,
			Headless: cfg.Headless,
			Install:  true,
		})
	default:
		return nil, fmt.Errorf("unknown browser driver %q", cfg.Driver)
	}

	if cfg.Appium.URL != "" {
		caps := appium.DefaultCapabilities()
		for k, v := range cfg.Appium.Capabilities {
			caps[k] = v
		}
		mobile, err := appium.NewFactory(appium.Options{
			ServerURL:    cfg.Appium.URL,
			App:          cfg.Appium.App,
			Capabilities: caps,
		})
		if err != nil {
			return nil, err
		}
		env.Mobile = mobile
	} else {
		logging.Debug("Env", "no Appium URL configured, mobile scenarios will be skipped")
	}
	return env, nil
}

// Close releases the driver factories.
func (e *Env) Close() error {
	var errList []error
	if e.Browser != nil {
		errList = append(errList, e.Browser.Close())
	}
	if e.Mobile != nil {
		errList = append(errList, e.Mobile.Close())
	}
	return errors.Join(errList...)
}
