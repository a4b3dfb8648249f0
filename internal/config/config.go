// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	Browser     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	Mailbox     MailboxConfig     `mapstructure:"mailbox" yaml:"mailbox"`
	Run         RunConfig         `mapstructure:"run" yaml:"run"`
	Credentials CredentialsConfig `mapstructure:"credentials" yaml:"credentials"`
	Report      ReportConfig      `mapstructure:"report" yaml:"report"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser instance.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	ViewportWidth     int           `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight    int           `mapstructure:"viewport_height" yaml:"viewport_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	// Settle is the quiet period granted to client-side JS after navigation
	// and after submits, where no observable condition exists to wait on.
	Settle        time.Duration `mapstructure:"settle" yaml:"settle"`
	ActionTimeout time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	Args          []string      `mapstructure:"args" yaml:"args"`
}

// MailboxConfig holds the IMAP connection and polling settings.
type MailboxConfig struct {
	Server       string        `mapstructure:"server" yaml:"server"`
	Address      string        `mapstructure:"address" yaml:"address"`
	Password     string        `mapstructure:"password" yaml:"-"`
	Folder       string        `mapstructure:"folder" yaml:"folder"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait" yaml:"max_wait"`
}

// RunConfig holds settings for an automation run.
type RunConfig struct {
	// TargetURL is the website every created listing links back to.
	TargetURL string `mapstructure:"target_url" yaml:"target_url"`
	// Password is the shared account password used for every registration.
	Password             string        `mapstructure:"password" yaml:"-"`
	SiteDelay            time.Duration `mapstructure:"site_delay" yaml:"site_delay"`
	NonInteractive       bool          `mapstructure:"non_interactive" yaml:"non_interactive"`
	CaptchaWait          time.Duration `mapstructure:"captcha_wait" yaml:"captcha_wait"`
	OverwriteCredentials bool          `mapstructure:"overwrite_credentials" yaml:"overwrite_credentials"`
	Sites                []string      `mapstructure:"sites" yaml:"sites"`
}

// CredentialsConfig selects and configures the credential store backend.
type CredentialsConfig struct {
	Backend     string `mapstructure:"backend" yaml:"backend"`
	Path        string `mapstructure:"path" yaml:"path"`
	DatabaseURL string `mapstructure:"database_url" yaml:"-"`
}

// ReportConfig configures the end-of-run report.
type ReportConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "linkforge")
	v.SetDefault("logger.log_file", "linkforge.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	v.SetDefault("browser.viewport_width", 1920)
	v.SetDefault("browser.viewport_height", 1080)
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.settle", "2s")
	v.SetDefault("browser.action_timeout", "15s")

	// -- Mailbox --
	v.SetDefault("mailbox.server", "imap.gmail.com:993")
	v.SetDefault("mailbox.folder", "INBOX")
	v.SetDefault("mailbox.poll_interval", "10s")
	v.SetDefault("mailbox.max_wait", "120s")

	// -- Run --
	v.SetDefault("run.site_delay", "5s")
	v.SetDefault("run.non_interactive", false)
	v.SetDefault("run.captcha_wait", "0s")
	v.SetDefault("run.overwrite_credentials", false)

	// -- Credentials --
	v.SetDefault("credentials.backend", "file")
	v.SetDefault("credentials.path", "credentials.json")

	// -- Report --
	v.SetDefault("report.path", "linkforge_report.json")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data.
	v.BindEnv("mailbox.password", "LINKFORGE_MAILBOX_PASSWORD")
	v.BindEnv("run.password", "LINKFORGE_RUN_PASSWORD")
	v.BindEnv("credentials.database_url", "LINKFORGE_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be a positive duration")
	}
	if c.Mailbox.PollInterval <= 0 {
		return fmt.Errorf("mailbox.poll_interval must be a positive duration")
	}
	if c.Run.SiteDelay < 0 {
		return fmt.Errorf("run.site_delay must not be negative")
	}
	switch c.Credentials.Backend {
	case "file":
		if c.Credentials.Path == "" {
			return fmt.Errorf("credentials.path is required for the file backend")
		}
	case "postgres":
		if c.Credentials.DatabaseURL == "" {
			return fmt.Errorf("credentials.database_url is required for the postgres backend (LINKFORGE_DATABASE_URL)")
		}
	default:
		return fmt.Errorf("unsupported credentials backend: %s", c.Credentials.Backend)
	}
	return nil
}

// ValidateForRun checks the fields a live automation run cannot start without.
// Kept separate from Validate so read-only commands (sites, report) work
// without a mailbox or target configured.
func (c *Config) ValidateForRun() error {
	if c.Run.TargetURL == "" {
		return fmt.Errorf("run.target_url is required (the website to backlink)")
	}
	if c.Run.Password == "" {
		return fmt.Errorf("run.password is required (LINKFORGE_RUN_PASSWORD)")
	}
	if c.Mailbox.Address == "" || c.Mailbox.Password == "" {
		return fmt.Errorf("mailbox.address and mailbox.password are required (LINKFORGE_MAILBOX_PASSWORD)")
	}
	return nil
}
