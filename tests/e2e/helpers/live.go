// Package helpers sets up the target for end-to-end tests.
package helpers

import (
	"os"
	"testing"

	"github.com/gotrs-io/configurator-e2e/internal/config"
)

// LiveConfig loads the configuration of a real Configurator. The test is
// skipped unless E2E_LIVE=1, credentials are configured and the target
// answers.
func LiveConfig(t *testing.T) *config.Config {
	t.Helper()
	if os.Getenv("E2E_LIVE") != "1" {
		t.Skip("set E2E_LIVE=1 to run against a live Configurator")
	}
	cfg, err := config.Load(os.Getenv("E2E_CONFIG"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Target.Password == "" {
		t.Skip("CONFIGURATOR_PASSWORD not configured, skipping authenticated test")
	}
	if !config.Reachable(cfg.Target.BaseURL, cfg.Target.LoginPath) {
		t.Skipf("%s is not reachable", cfg.Target.BaseURL)
	}
	return cfg
}
