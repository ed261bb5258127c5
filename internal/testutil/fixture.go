// Package testutil provides testing utilities and test environment setup.
package testutil

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/gotrs-io/configurator-e2e/internal/config"
	"github.com/gotrs-io/configurator-e2e/internal/configurator"
	"github.com/gotrs-io/configurator-e2e/internal/logging"
)

// Fixture credentials.
const (
	Username = "admin"
	Password = "p@ss$word"
)

// Fixture is a running Configurator plus a configuration pointing at it.
type Fixture struct {
	Server *httptest.Server
	Store  configurator.Store
	Config *config.Config
}

// StartFixture serves a seeded in-memory Configurator for the duration of
// the test. The returned config uses the html driver.
func StartFixture(t *testing.T) *Fixture {
	t.Helper()
	return StartFixtureWith(t, configurator.NewMemoryStore())
}

// StartFixtureWith is StartFixture backed by store.
func StartFixtureWith(t *testing.T, store configurator.Store) *Fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	require.NoError(t, configurator.Seed(context.Background(), store))
	srv, err := configurator.New(configurator.Options{
		Store:    store,
		Username: Username,
		Password: Password,
		Secret:   "test-secret",
		Logger:   logging.Discard(),
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &Fixture{Server: ts, Store: store, Config: Config(ts.URL)}
}

// Config returns a configuration for baseURL with short waits.
func Config(baseURL string) *config.Config {
	return &config.Config{
		Target: config.TargetConfig{
			BaseURL:   baseURL,
			LoginPath: "/login",
			HomePath:  "/",
			Username:  Username,
			Password:  Password,
		},
		Browser: config.BrowserConfig{Driver: config.DriverHTML, Headless: true},
		Wait: config.WaitConfig{
			Timeout:      2 * time.Second,
			PollInterval: 20 * time.Millisecond,
		},
		Fixtures: config.FixturesConfig{
			AppName: "app-e2e-test",
			AppDesc: "created by a test",
		},
	}
}
