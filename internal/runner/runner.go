// Package runner executes suites against a browser session opened from
// configuration, once or on a schedule.
package runner

import (
	"context"
	"fmt"

	"github.com/phuslu/log"

	"github.com/gotrs-io/configurator-e2e/internal/browser"
	"github.com/gotrs-io/configurator-e2e/internal/browser/launcher"
	"github.com/gotrs-io/configurator-e2e/internal/config"
	"github.com/gotrs-io/configurator-e2e/internal/login"
	"github.com/gotrs-io/configurator-e2e/internal/scenario"
)

// OpenFunc acquires the browser session for one suite run.
type OpenFunc func(ctx context.Context, cfg *config.Config, logger *log.Logger) (browser.Page, error)

// Options tune a suite run.
type Options struct {
	Logger    *log.Logger
	Observers []scenario.Observer
	FailFast  bool
	// Open defaults to launcher.Open.
	Open OpenFunc
}

// Execute opens a browser session, runs suite (with the login setup when
// the suite asks for it) and closes the session again.
func Execute(ctx context.Context, cfg *config.Config, suite *scenario.Suite, opts Options) (*scenario.SuiteResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = &log.DefaultLogger
	}
	open := opts.Open
	if open == nil {
		open = launcher.Open
	}

	page, err := open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close browser")
		}
	}()

	r := scenario.New(page, runnerOptions(cfg, logger, opts)...)
	return r.RunSuite(ctx, login.Prepare(suite, cfg)), nil
}

func runnerOptions(cfg *config.Config, logger *log.Logger, opts Options) []scenario.Option {
	ro := []scenario.Option{
		scenario.WithTimeout(cfg.Wait.Timeout),
		scenario.WithPollInterval(cfg.Wait.PollInterval),
		scenario.WithLogger(logger),
		scenario.WithEnv(cfg.Env()),
		scenario.WithBaseURL(cfg.Target.BaseURL),
		scenario.WithDriverName(cfg.Browser.Driver),
		scenario.WithFailFast(opts.FailFast),
	}
	if cfg.Browser.Screenshots && cfg.Browser.ScreenshotDir != "" {
		ro = append(ro, scenario.WithScreenshotDir(cfg.Browser.ScreenshotDir))
	}
	for _, o := range opts.Observers {
		ro = append(ro, scenario.WithObserver(o))
	}
	return ro
}
