package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/gotrs-io/configurator-e2e/internal/config"
	"github.com/gotrs-io/configurator-e2e/internal/logging"
	"github.com/gotrs-io/configurator-e2e/internal/version"
)

// errScenariosFailed makes the process exit non-zero without printing usage.
var errScenariosFailed = errors.New("scenarios failed")

var rootCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Declarative UI scenarios for the Configurator",
	Long: `Runs YAML scenario suites against the Configurator web UI through a real
or simulated browser, and serves a local Configurator fixture to run them against.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	versionJSONFlag bool
	configFile      string
	driverFlag      string
	logLevelFlag    string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (env SCENARIOS_* overrides it)")
	rootCmd.PersistentFlags().StringVar(&driverFlag, "driver", "", "Browser driver: playwright, chromedp or html")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")

	versionCmd.Flags().BoolVar(&versionJSONFlag, "json", false, "Print version information as JSON")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionJSONFlag {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(version.GetInfo())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "scenarios %s\n", version.Full())
		return nil
	},
}

// loadConfig reads the configuration and applies the persistent flags.
func loadConfig() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	if driverFlag != "" {
		cfg.Browser.Driver = driverFlag
	}
	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(cfg.Logging), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errScenariosFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
