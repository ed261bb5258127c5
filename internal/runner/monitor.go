package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"github.com/gotrs-io/configurator-e2e/internal/config"
	"github.com/gotrs-io/configurator-e2e/internal/scenario"
)

// Monitor re-runs a suite on a cron schedule. A run that is still going
// when the next one is due causes that next run to be skipped.
type Monitor struct {
	cron   *cron.Cron
	cfg    *config.Config
	suite  *scenario.Suite
	opts   Options
	logger *log.Logger

	// OnResult is called after every finished run.
	OnResult func(*scenario.SuiteResult)
}

// NewMonitor creates a monitor for suite.
func NewMonitor(cfg *config.Config, suite *scenario.Suite, opts Options) *Monitor {
	if opts.Logger == nil {
		opts.Logger = &log.DefaultLogger
	}
	opts.Logger = withComponent(opts.Logger, "monitor")
	cl := cronLogger{logger: opts.Logger}
	return &Monitor{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		cfg:    cfg,
		suite:  suite,
		opts:   opts,
		logger: opts.Logger,
	}
}

// Start schedules the suite and blocks until ctx is done.
func (m *Monitor) Start(ctx context.Context, schedule string) error {
	if _, err := m.cron.AddFunc(schedule, func() { m.runOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	m.logger.Info().Str("suite", m.suite.Name).Str("schedule", schedule).Msg("monitor started")
	m.cron.Start()

	<-ctx.Done()
	m.Stop()
	return nil
}

// Stop waits for a running suite to finish.
func (m *Monitor) Stop() {
	<-m.cron.Stop().Done()
	m.logger.Info().Str("suite", m.suite.Name).Msg("monitor stopped")
}

func (m *Monitor) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	res, err := Execute(ctx, m.cfg, m.suite, m.opts)
	if err != nil {
		m.logger.Error().Err(err).Str("suite", m.suite.Name).Msg("run failed to start")
		return
	}
	passed, failed, skipped := res.Counts()
	entry := m.logger.Info()
	if res.Failed() {
		entry = m.logger.Warn()
	}
	entry.Str("suite", res.Suite).
		Int("passed", passed).
		Int("failed", failed).
		Int("skipped", skipped).
		Dur("duration", time.Since(start)).
		Msg("run finished")
	if m.OnResult != nil {
		m.OnResult(res)
	}
}

// withComponent returns a copy of logger tagging every entry with component.
func withComponent(logger *log.Logger, component string) *log.Logger {
	l := *logger
	l.Context = log.NewContext(nil).Str("component", component).Value()
	return &l
}

type cronLogger struct {
	logger *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.logger.Debug().Msgf("cron: %s %v", msg, keysAndValues)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.logger.Error().Err(err).Msgf("cron: %s %v", msg, keysAndValues)
}
