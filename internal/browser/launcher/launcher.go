// Package launcher opens the browser.Page selected by configuration.
package launcher

import (
	"context"
	"fmt"

	"github.com/phuslu/log"

	"github.com/gotrs-io/configurator-e2e/internal/browser"
	"github.com/gotrs-io/configurator-e2e/internal/browser/cdpdriver"
	"github.com/gotrs-io/configurator-e2e/internal/browser/htmldriver"
	"github.com/gotrs-io/configurator-e2e/internal/browser/pwdriver"
	"github.com/gotrs-io/configurator-e2e/internal/config"
)

// Open starts the configured driver. The caller closes the page.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (browser.Page, error) {
	b := cfg.Browser
	logger.Info().Str("driver", b.Driver).Bool("headless", b.Headless).Msg("opening browser")

	var (
		page browser.Page
		err  error
	)
	switch b.Driver {
	case config.DriverPlaywright:
		var p *pwdriver.Page
		p, err = pwdriver.Launch(pwdriver.Options{
			Headless:      b.Headless,
			SlowMo:        b.SlowMo,
			Width:         b.Width,
			Height:        b.Height,
			ActionTimeout:     cfg.Wait.Timeout,
			NavigationTimeout: cfg.Wait.NavigationTimeout,
			VideoDir:          b.VideoDir,
		})
		page = p
	case config.DriverChromedp:
		var p *cdpdriver.Page
		p, err = cdpdriver.Launch(ctx, cdpdriver.Options{
			Headless:      b.Headless,
			Width:         b.Width,
			Height:        b.Height,
			ExecPath:          b.ExecPath,
			ActionTimeout:     cfg.Wait.Timeout,
			NavigationTimeout: cfg.Wait.NavigationTimeout,
		})
		page = p
	case config.DriverHTML:
		var p *htmldriver.Page
		p, err = htmldriver.New(htmldriver.WithNavigationTimeout(cfg.Wait.NavigationTimeout))
		page = p
	default:
		return nil, fmt.Errorf("unknown browser driver %q", b.Driver)
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}
