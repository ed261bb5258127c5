package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/gotrs-io/configurator-e2e/internal/config"
	"github.com/gotrs-io/configurator-e2e/internal/metrics"
	"github.com/gotrs-io/configurator-e2e/internal/report"
	"github.com/gotrs-io/configurator-e2e/internal/runner"
	"github.com/gotrs-io/configurator-e2e/internal/scenario"
	"github.com/gotrs-io/configurator-e2e/internal/suites"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario suite",
	Long: `Run executes a suite, either one embedded in the binary (see "list") or a
YAML file, and prints one line per scenario. The exit status is non-zero when
setup or any scenario failed.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	suiteFlag     string
	tagsFlag      []string
	reportDirFlag string
	formatFlag    []string
	failFastFlag  bool
	watchFlag     bool
	textfileFlag  string
)

func init() {
	runCmd.Flags().StringVar(&suiteFlag, "suite", "application", "Embedded suite name or path to a suite file")
	runCmd.Flags().StringSliceVar(&tagsFlag, "tags", nil, "Only run scenarios carrying one of these tags")
	runCmd.Flags().StringVar(&reportDirFlag, "report-dir", "", "Write reports to this directory (default from config)")
	runCmd.Flags().StringSliceVar(&formatFlag, "format", nil, "Report formats: json, md, html, xlsx")
	runCmd.Flags().BoolVar(&failFastFlag, "fail-fast", false, "Skip remaining scenarios after the first failure")
	runCmd.Flags().BoolVar(&watchFlag, "watch", false, "Re-run whenever the suite file changes")
	runCmd.Flags().StringVar(&textfileFlag, "metrics-textfile", "", "Write Prometheus metrics to this file after the run")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if reportDirFlag != "" {
		cfg.Report.Dir = reportDirFlag
	}
	if len(formatFlag) > 0 {
		cfg.Report.Formats = formatFlag
	}
	if textfileFlag != "" {
		cfg.Metrics.Textfile = textfileFlag
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if !watchFlag {
		suite, err := resolveSuite(suiteFlag, tagsFlag)
		if err != nil {
			return err
		}
		return runSuite(ctx, out, cfg, logger, suite)
	}

	if _, err := os.Stat(suiteFlag); err != nil {
		return fmt.Errorf("--watch needs a suite file: %w", err)
	}
	return watch(ctx, suiteFlag, logger, func() {
		suite, err := resolveSuite(suiteFlag, tagsFlag)
		if err != nil {
			logger.Error().Err(err).Str("file", suiteFlag).Msg("suite file is invalid")
			return
		}
		if err := runSuite(ctx, out, cfg, logger, suite); err != nil && !errors.Is(err, errScenariosFailed) {
			logger.Error().Err(err).Msg("run failed")
		}
	})
}

// resolveSuite loads ref as a file when one exists, else as an embedded
// suite name, and keeps only scenarios tagged with one of tags.
func resolveSuite(ref string, tags []string) (*scenario.Suite, error) {
	var (
		suite *scenario.Suite
		err   error
	)
	if _, statErr := os.Stat(ref); statErr == nil {
		suite, err = scenario.LoadFile(ref)
	} else {
		suite, err = suites.Load(ref)
	}
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return suite, nil
	}
	filtered := suite.Filter(func(sc *scenario.Scenario) bool {
		for _, t := range tags {
			if sc.HasTag(t) {
				return true
			}
		}
		return false
	})
	if len(filtered.Scenarios) == 0 {
		return nil, fmt.Errorf("no scenario of %q is tagged %s", suite.Name, strings.Join(tags, ", "))
	}
	return filtered, nil
}

func runSuite(ctx context.Context, out io.Writer, cfg *config.Config, logger *log.Logger, suite *scenario.Suite) error {
	if cfg.Browser.Driver != config.DriverHTML && !config.Reachable(cfg.Target.BaseURL, cfg.Target.LoginPath) {
		logger.Warn().Str("url", cfg.Target.BaseURL).Msg("target does not answer, scenarios will likely fail")
	}

	collector := metrics.NewCollector()
	res, err := runner.Execute(ctx, cfg, suite, runner.Options{
		Logger:    logger,
		Observers: []scenario.Observer{collector},
		FailFast:  failFastFlag,
	})
	if err != nil {
		return err
	}

	printResult(out, res)
	if err := publish(cfg, logger, res, collector); err != nil {
		return err
	}
	if res.Failed() {
		return errScenariosFailed
	}
	return nil
}

// publish writes the configured reports and metrics textfile for res.
func publish(cfg *config.Config, logger *log.Logger, res *scenario.SuiteResult, collector *metrics.Collector) error {
	if cfg.Report.Dir != "" {
		paths, err := report.Write(cfg.Report.Dir, res, cfg.Report.Formats...)
		if err != nil {
			return err
		}
		for _, p := range paths {
			logger.Info().Str("path", p).Msg("report written")
		}
	}
	if cfg.Metrics.Textfile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Metrics.Textfile), 0o755); err != nil {
			return err
		}
		if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

func printResult(out io.Writer, res *scenario.SuiteResult) {
	if res.Setup != nil && res.Setup.Status == scenario.StatusFailed {
		fmt.Fprintf(out, "FAIL  setup: %s\n", res.Setup.Error)
	}
	for _, sc := range res.Scenarios {
		switch sc.Status {
		case scenario.StatusPassed:
			fmt.Fprintf(out, "ok    %s (%s)\n", sc.Name, sc.Duration.Round(time.Millisecond))
		case scenario.StatusFailed:
			fmt.Fprintf(out, "FAIL  %s: %s\n", sc.Name, sc.Error)
			if sc.Screenshot != "" {
				fmt.Fprintf(out, "      screenshot: %s\n", sc.Screenshot)
			}
		default:
			fmt.Fprintf(out, "skip  %s\n", sc.Name)
		}
	}
	fmt.Fprintln(out, report.Summary(res))
}

// watch calls run once and then again after every change to path, until
// ctx is done. Editors often replace files, so the directory is watched.
func watch(ctx context.Context, path string, logger *log.Logger, run func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	run()
	logger.Info().Str("file", path).Msg("watching for changes")

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce = time.After(200 * time.Millisecond)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watch error")
		case <-debounce:
			debounce = nil
			logger.Info().Str("file", path).Msg("suite changed, running again")
			run()
		}
	}
}
