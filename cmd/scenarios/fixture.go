package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/gotrs-io/configurator-e2e/internal/configurator"
)

var fixtureCmd = &cobra.Command{
	Use:   "fixture",
	Short: "Local Configurator to run scenarios against",
}

var fixtureServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Application screens of the Configurator",
	Long: `Serve starts a Configurator with the Application screens the suites drive.
It signs in the user configured as target.username / target.password.

  --db memory          keep everything in memory (default)
  --db sqlite:PATH     persist to a SQLite file`,
	Args: cobra.NoArgs,
	RunE: runFixtureServe,
}

var (
	addrFlag   string
	dbFlag     string
	noSeedFlag bool
)

func init() {
	fixtureServeCmd.Flags().StringVar(&addrFlag, "addr", ":8080", "Listen address")
	fixtureServeCmd.Flags().StringVar(&dbFlag, "db", "memory", "Storage: memory or sqlite:PATH")
	fixtureServeCmd.Flags().BoolVar(&noSeedFlag, "no-seed", false, "Start without sample applications")

	fixtureCmd.AddCommand(fixtureServeCmd)
	rootCmd.AddCommand(fixtureCmd)
}

func openStore(spec string) (configurator.Store, error) {
	switch {
	case spec == "" || spec == "memory":
		return configurator.NewMemoryStore(), nil
	case strings.HasPrefix(spec, "sqlite:"):
		return configurator.OpenSQLite(strings.TrimPrefix(spec, "sqlite:"))
	default:
		return nil, fmt.Errorf("unknown --db %q, want memory or sqlite:PATH", spec)
	}
}

func runFixtureServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Target.Password == "" {
		return fmt.Errorf("target.password (CONFIGURATOR_PASSWORD) must be set")
	}

	store, err := openStore(dbFlag)
	if err != nil {
		return err
	}
	defer store.Close()
	if !noSeedFlag {
		if err := configurator.Seed(context.Background(), store); err != nil {
			return fmt.Errorf("failed to seed: %w", err)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	srv, err := configurator.New(configurator.Options{
		Store:    store,
		Username: cfg.Target.Username,
		Password: cfg.Target.Password,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	logger.Info().Str("addr", addrFlag).Str("db", dbFlag).Str("user", cfg.Target.Username).Msg("fixture listening")
	return srv.ListenAndServe(cmd.Context(), addrFlag)
}
