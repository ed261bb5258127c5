package login

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gotrs-io/configurator-e2e/internal/browser/browsertest"
	"github.com/gotrs-io/configurator-e2e/internal/config"
	"github.com/gotrs-io/configurator-e2e/internal/logging"
	"github.com/gotrs-io/configurator-e2e/internal/scenario"
)

func testConfig() *config.Config {
	return &config.Config{
		Target: config.TargetConfig{
			BaseURL:   "http://configurator.test",
			LoginPath: "/login",
			HomePath:  "/",
			Username:  "admin",
			Password:  "pa$$word",
		},
	}
}

func loginPage(landing string) (*browsertest.Page, *browsertest.Node, *browsertest.Node) {
	page := browsertest.NewPage()
	user := &browsertest.Node{Value: "prefilled"}
	pass := &browsertest.Node{}
	page.Set(UsernameSelector, user)
	page.Set(PasswordSelector, pass)
	page.Set(SubmitSelector, &browsertest.Node{OnClick: func() {
		page.Set(HeaderSelector, &browsertest.Node{Text: landing})
	}})
	return page, user, pass
}

func newRunner(page *browsertest.Page, cfg *config.Config) *scenario.Runner {
	return scenario.New(page,
		scenario.WithTimeout(100*time.Millisecond),
		scenario.WithPollInterval(5*time.Millisecond),
		scenario.WithLogger(logging.Discard()),
		scenario.WithEnv(cfg.Env()),
	)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("fills credentials and returns the landing title", func(t *testing.T) {
		cfg := testConfig()
		page, user, pass := loginPage("Applications")
		title, err := Login(ctx, newRunner(page, cfg), cfg)
		require.NoError(t, err)
		assert.Equal(t, HomeTitle, title)
		assert.Equal(t, "admin", user.Value)
		assert.Equal(t, "pa$$word", pass.Value)
		assert.Equal(t, []string{"http://configurator.test/login"}, page.Visited)
	})

	t.Run("reports the error message of a rejected login", func(t *testing.T) {
		cfg := testConfig()
		page, _, _ := loginPage("Sign in")
		page.Set(ErrorSelector, &browsertest.Node{Text: "Invalid credentials"})
		title, err := Login(ctx, newRunner(page, cfg), cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid credentials")
		assert.Equal(t, "Sign in", title)
	})

	t.Run("missing form", func(t *testing.T) {
		cfg := testConfig()
		_, err := Login(ctx, newRunner(browsertest.NewPage(), cfg), cfg)
		assert.ErrorIs(t, err, scenario.ErrNotFound)
	})

	t.Run("no credentials", func(t *testing.T) {
		cfg := testConfig()
		cfg.Target.Username = ""
		_, err := Login(ctx, newRunner(browsertest.NewPage(), cfg), cfg)
		assert.Error(t, err)
	})
}

func TestPrepare(t *testing.T) {
	cfg := testConfig()
	suite := &scenario.Suite{
		Name:      "apps",
		Login:     true,
		Setup:     []scenario.Step{scenario.Navigate("/")},
		Scenarios: []scenario.Scenario{{Name: "a", Steps: []scenario.Step{scenario.Navigate("/")}}},
	}

	prepared := Prepare(suite, cfg)
	require.NoError(t, prepared.Validate())
	assert.Len(t, prepared.Setup, len(Steps(cfg))+2)
	assert.Equal(t, scenario.ActionNavigate, prepared.Setup[0].Action)
	assert.Equal(t, "/", prepared.Setup[len(prepared.Setup)-1].Value)
	assert.Len(t, suite.Setup, 1)

	suite.Login = false
	assert.Same(t, suite, Prepare(suite, cfg))

	t.Run("setup fails when the landing title is wrong", func(t *testing.T) {
		page, _, _ := loginPage("Dashboard")
		suite.Login = true
		res := newRunner(page, cfg).RunSuite(context.Background(), Prepare(suite, cfg))
		require.NotNil(t, res.Setup)
		assert.Equal(t, scenario.StatusFailed, res.Setup.Status)
		assert.ErrorIs(t, res.Setup.Err, scenario.ErrAssertionFailed)
		assert.Equal(t, scenario.StatusSkipped, res.Scenarios[0].Status)
	})
}
