// Package login holds the steps every Configurator suite starts with.
package login

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gotrs-io/configurator-e2e/internal/config"
	"github.com/gotrs-io/configurator-e2e/internal/scenario"
)

const (
	UsernameSelector = "input[name='username']"
	PasswordSelector = "input[name='password']"
	SubmitSelector   = "button[type='submit']"
	HeaderSelector   = ".page-header"
	ErrorSelector    = "#error-message"

	// HomeTitle is the page header of the Applications listing.
	HomeTitle = "Applications"
	// TitleVar is the variable the login steps save the landing title in.
	TitleVar = "homeTitle"
)

// Steps signs in with the configured credentials and saves the title of the
// landing page as ${homeTitle}. Credentials are referenced through
// ${CONFIGURATOR_USERNAME} and ${CONFIGURATOR_PASSWORD} so the runner must
// carry cfg.Env().
func Steps(cfg *config.Config) []scenario.Step {
	return []scenario.Step{
		scenario.Navigate(cfg.LoginURL()).Named("open login page"),
		scenario.Clear(UsernameSelector).Named("clear username"),
		scenario.Type(UsernameSelector, "${CONFIGURATOR_USERNAME}").Named("fill username"),
		scenario.Type(PasswordSelector, "${CONFIGURATOR_PASSWORD}").Named("fill password"),
		scenario.Click(SubmitSelector).Named("submit login"),
		scenario.ReadText(HeaderSelector, TitleVar).Named("read landing title"),
	}
}

// Prepare returns suite with the login steps and a check of the landing
// title prepended to its setup. Suites that do not ask for login are
// returned as they are.
func Prepare(suite *scenario.Suite, cfg *config.Config) *scenario.Suite {
	if !suite.Login {
		return suite
	}
	out := *suite
	setup := Steps(cfg)
	setup = append(setup, scenario.AssertValue("${"+TitleVar+"}", HomeTitle).Named("landed on "+HomeTitle))
	out.Setup = append(setup, suite.Setup...)
	return &out
}

// Login runs the login steps on r and returns the landing page title.
func Login(ctx context.Context, r *scenario.Runner, cfg *config.Config) (string, error) {
	if cfg.Target.Username == "" {
		return "", errors.New("login credentials not configured")
	}
	if err := r.Run(ctx, Steps(cfg)...); err != nil {
		if msg := rejection(ctx, r); msg != "" {
			return "", fmt.Errorf("login failed: %s: %w", msg, err)
		}
		return "", fmt.Errorf("login failed: %w", err)
	}
	title, _ := r.Var(TitleVar)
	if title != HomeTitle {
		if msg := rejection(ctx, r); msg != "" {
			return title, fmt.Errorf("login failed: %s", msg)
		}
	}
	return title, nil
}

// rejection returns the message the login page shows for bad credentials.
func rejection(ctx context.Context, r *scenario.Runner) string {
	probe := scenario.ReadText(ErrorSelector, "loginError")
	probe.Timeout = 500 * time.Millisecond
	if r.Run(ctx, probe) != nil {
		return ""
	}
	msg, _ := r.Var("loginError")
	return msg
}
