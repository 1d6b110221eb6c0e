// Package config loads pizzatimer settings from defaults, an optional YAML
// file, a .env file and PIZZATIMER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppSlug names the per-user config and state directories.
const AppSlug = "pizzatimer"

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "PIZZATIMER"

// Config is the resolved application configuration.
type Config struct {
	APIURL          string        `mapstructure:"api_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	ReminderMinutes int           `mapstructure:"reminder_minutes"`
	Sound           bool          `mapstructure:"sound"`
	Alerts          bool          `mapstructure:"alerts"`
	AlertIcon       string        `mapstructure:"alert_icon"`
	LogFile         string        `mapstructure:"log_file"`
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	CredentialsFile string        `mapstructure:"credentials_file"`

	// ConfigFile is the YAML file that was read, empty if none.
	ConfigFile string `mapstructure:"-"`
}

// Validate rejects settings the app cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIURL) == "" {
		errs = append(errs, errors.New("api_url must be set"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval))
	}
	if c.ReminderMinutes < 0 {
		errs = append(errs, fmt.Errorf("reminder_minutes must not be negative, got %d", c.ReminderMinutes))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	configFile string
	envFiles   []string
	overrides  map[string]any
}

// WithConfigFile reads the given YAML file instead of searching for one.
func WithConfigFile(path string) Option {
	return func(l *loader) {
		l.configFile = path
	}
}

// WithEnvFiles sets the .env files loaded before reading the environment.
// Missing files are ignored.
func WithEnvFiles(paths ...string) Option {
	return func(l *loader) {
		l.envFiles = paths
	}
}

// WithOverride forces a key, typically from a command-line flag.
func WithOverride(key string, value any) Option {
	return func(l *loader) {
		l.overrides[key] = value
	}
}

// DefaultConfigDir is where config.yaml is looked up.
func DefaultConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppSlug)
}

// Load resolves the configuration. Precedence, highest first: overrides,
// environment, config file, defaults.
func Load(opts ...Option) (*Config, error) {
	l := &loader{envFiles: []string{".env"}, overrides: map[string]any{}}
	for _, opt := range opts {
		opt(l)
	}

	for _, f := range l.envFiles {
		// godotenv never overrides variables already set.
		_ = godotenv.Load(f)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigDir())
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	for k, val := range l.overrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("poll_interval", 30*time.Second)
	v.SetDefault("tick_interval", time.Second)
	v.SetDefault("reminder_minutes", 15)
	v.SetDefault("sound", true)
	v.SetDefault("alerts", true)
	v.SetDefault("alert_icon", "🍕")
	v.SetDefault("log_file", filepath.Join(xdg.StateHome, AppSlug, "pizzatimer.log"))
	v.SetDefault("log_level", "normal")
	v.SetDefault("log_format", "text")
	v.SetDefault("credentials_file", filepath.Join(xdg.StateHome, AppSlug, "credentials.json"))
}
