package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/gotrs-io/configurator-e2e/internal/metrics"
	"github.com/gotrs-io/configurator-e2e/internal/runner"
	"github.com/gotrs-io/configurator-e2e/internal/scenario"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run a suite on a schedule",
	Long: `Monitor runs the suite on a cron schedule (for example "@every 15m" or
"*/10 * * * *") until interrupted. A run still in progress when the next is
due makes that next run skip. Metrics are served on --metrics-addr.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

var (
	scheduleFlag    string
	metricsAddrFlag string
)

func init() {
	monitorCmd.Flags().StringVar(&scheduleFlag, "schedule", "", "Cron schedule (default from config)")
	monitorCmd.Flags().StringVar(&suiteFlag, "suite", "application", "Embedded suite name or path to a suite file")
	monitorCmd.Flags().StringSliceVar(&tagsFlag, "tags", nil, "Only run scenarios carrying one of these tags")
	monitorCmd.Flags().StringVar(&metricsAddrFlag, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9110")

	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if scheduleFlag != "" {
		cfg.Monitor.Schedule = scheduleFlag
	}
	suite, err := resolveSuite(suiteFlag, tagsFlag)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	collector := metrics.NewCollector()
	if metricsAddrFlag != "" {
		srv := &http.Server{Addr: metricsAddrFlag, Handler: metricsMux(collector), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", metricsAddrFlag).Msg("metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info().Str("addr", metricsAddrFlag).Msg("serving metrics")
	}

	m := runner.NewMonitor(cfg, suite, runner.Options{
		Logger:    logger,
		Observers: []scenario.Observer{collector},
	})
	m.OnResult = func(res *scenario.SuiteResult) {
		if err := publish(cfg, logger, res, collector); err != nil {
			logger.Error().Err(err).Msg("failed to publish results")
		}
	}
	return m.Start(ctx, cfg.Monitor.Schedule)
}

func metricsMux(collector *metrics.Collector) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
