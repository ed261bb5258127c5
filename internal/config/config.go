package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every generic environment override,
// e.g. SCENARIOS_WAIT_TIMEOUT=15s.
const EnvPrefix = "SCENARIOS"

// Supported browser drivers.
const (
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"
	DriverHTML       = "html"
)

// Config represents the scenario runner configuration
type Config struct {
	Target   TargetConfig   `mapstructure:"target"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Wait     WaitConfig     `mapstructure:"wait"`
	Fixtures FixturesConfig `mapstructure:"fixtures"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Report   ReportConfig   `mapstructure:"report"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
}

// TargetConfig describes the application under test.
type TargetConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	LoginPath  string `mapstructure:"login_path"`
	HomePath   string `mapstructure:"home_path"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	Autodetect bool   `mapstructure:"autodetect"`
}

type BrowserConfig struct {
	Driver        string        `mapstructure:"driver"`
	Headless      bool          `mapstructure:"headless"`
	SlowMo        time.Duration `mapstructure:"slow_mo"`
	Width         int           `mapstructure:"width"`
	Height        int           `mapstructure:"height"`
	Screenshots   bool          `mapstructure:"screenshots"`
	ScreenshotDir string        `mapstructure:"screenshot_dir"`
	VideoDir      string        `mapstructure:"video_dir"`
	ExecPath      string        `mapstructure:"exec_path"`
}

// WaitConfig bounds every poll the runner performs.
type WaitConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
}

// FixturesConfig holds the entity values scenarios type into forms.
type FixturesConfig struct {
	AppName string `mapstructure:"app_name"`
	AppDesc string `mapstructure:"app_desc"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ReportConfig struct {
	Dir     string   `mapstructure:"dir"`
	Formats []string `mapstructure:"formats"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type MonitorConfig struct {
	Schedule string `mapstructure:"schedule"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names kept for existing CI jobs.
	bindings := map[string]string{
		"target.base_url":   "CONFIGURATOR_URL",
		"target.username":   "CONFIGURATOR_USERNAME",
		"target.password":   "CONFIGURATOR_PASSWORD",
		"fixtures.app_name": "APP_NAME",
		"fixtures.app_desc": "APP_DESC",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Fixtures.AppName == "" {
		cfg.Fixtures.AppName = "app-e2e-" + uuid.NewString()[:8]
	}
	cfg.Target.BaseURL = strings.TrimRight(cfg.Target.BaseURL, "/")
	if cfg.Target.Autodetect {
		cfg.Target.BaseURL = DetectReachableBaseURL(cfg.Target.BaseURL, cfg.Target.LoginPath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values a run cannot proceed without.
func (c *Config) Validate() error {
	var errs []error
	if c.Target.BaseURL == "" {
		errs = append(errs, errors.New("target.base_url is required"))
	}
	switch c.Browser.Driver {
	case DriverPlaywright, DriverChromedp, DriverHTML:
	default:
		errs = append(errs, fmt.Errorf("unknown browser.driver %q", c.Browser.Driver))
	}
	if c.Wait.Timeout <= 0 {
		errs = append(errs, errors.New("wait.timeout must be positive"))
	}
	if c.Wait.PollInterval <= 0 || c.Wait.PollInterval > c.Wait.Timeout {
		errs = append(errs, errors.New("wait.poll_interval must be positive and not exceed wait.timeout"))
	}
	return errors.Join(errs...)
}

// ConfiguratorURL returns the URL of the Applications listing.
func (c *Config) ConfiguratorURL() string {
	return c.Target.BaseURL + c.Target.HomePath
}

// LoginURL returns the URL of the login form.
func (c *Config) LoginURL() string {
	return c.Target.BaseURL + c.Target.LoginPath
}

// Env exposes fixture values under the names scenario files reference.
func (c *Config) Env() map[string]string {
	return map[string]string{
		"APP_NAME":              c.Fixtures.AppName,
		"APP_DESC":              c.Fixtures.AppDesc,
		"CONFIGURATOR_URL":      c.ConfiguratorURL(),
		"CONFIGURATOR_USERNAME": c.Target.Username,
		"CONFIGURATOR_PASSWORD": c.Target.Password,
		"LOGIN_URL":             c.LoginURL(),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("target.base_url", "http://localhost:8080")
	v.SetDefault("target.login_path", "/login")
	v.SetDefault("target.home_path", "/")
	v.SetDefault("target.username", "admin")
	v.SetDefault("target.password", "")
	v.SetDefault("target.autodetect", false)

	v.SetDefault("browser.driver", DriverPlaywright)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.slow_mo", 0)
	v.SetDefault("browser.width", 1280)
	v.SetDefault("browser.height", 720)
	v.SetDefault("browser.screenshots", true)
	v.SetDefault("browser.screenshot_dir", "./test-results/screenshots")
	v.SetDefault("browser.video_dir", "")
	v.SetDefault("browser.exec_path", "")

	v.SetDefault("wait.timeout", 10*time.Second)
	v.SetDefault("wait.poll_interval", 250*time.Millisecond)
	v.SetDefault("wait.navigation_timeout", 30*time.Second)

	v.SetDefault("fixtures.app_name", "")
	v.SetDefault("fixtures.app_desc", "created by configurator-e2e")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("report.dir", "")
	v.SetDefault("report.formats", []string{"json", "md"})

	v.SetDefault("metrics.textfile", "")

	v.SetDefault("monitor.schedule", "@every 15m")
}
