/*
Package config loads runtime configuration for the server and the CLI.

SOURCES (later wins):
 1. Built-in defaults
 2. YAML file (--config, or ./budget.yaml when present)
 3. Environment, BUDGET_ prefix with "." replaced by "_"
    (BUDGET_SERVER_PORT=9090, BUDGET_LOGGING_LEVEL=debug)

Command-line flags are bound to the returned viper instance by the
commands themselves, so they override all of the above.

EXAMPLE budget.yaml:

	server:
	  port: 8080
	  db_path: ./budget.db
	  scheduler_interval: 1h
	  scheduler_enabled: true
	  allowed_origins: ["http://localhost:5173"]
	client:
	  base_url: http://localhost:8080
	  rows_per_page: 8
	  timeout: 10s
	  rate_limit: 10
	logging:
	  level: info
	  format: console
*/
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "BUDGET"

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Client  ClientConfig  `mapstructure:"client"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig configures cmd/server.
type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	DBPath            string        `mapstructure:"db_path"`
	SchedulerInterval time.Duration `mapstructure:"scheduler_interval"`
	SchedulerEnabled  bool          `mapstructure:"scheduler_enabled"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
}

// ClientConfig configures the HTTP client used by budgetctl.
type ClientConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	RowsPerPage int           `mapstructure:"rows_per_page"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// RateLimit is requests per second; 0 disables limiting.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key with its default value. Keys must be
// registered for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.db_path", "budget.db")
	v.SetDefault("server.scheduler_interval", time.Hour)
	v.SetDefault("server.scheduler_enabled", true)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:8080"})

	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("client.rows_per_page", 8)
	v.SetDefault("client.timeout", 10*time.Second)
	v.SetDefault("client.rate_limit", 10.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// NewViper returns a viper instance with defaults, the config file and the
// environment applied. An empty configFile searches ./budget.yaml; a
// missing default file is not an error, a missing explicit file is.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("budget")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}
	return v, nil
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load is NewViper followed by FromViper.
func Load(configFile string) (Config, error) {
	v, err := NewViper(configFile)
	if err != nil {
		return Config{}, err
	}
	return FromViper(v)
}

// Validate rejects values the server or client cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}
	if c.Server.DBPath == "" {
		errs = append(errs, errors.New("server.db_path is required"))
	}
	if c.Server.SchedulerEnabled && c.Server.SchedulerInterval <= 0 {
		errs = append(errs, fmt.Errorf("server.scheduler_interval must be positive, got %s", c.Server.SchedulerInterval))
	}

	if u, err := url.Parse(c.Client.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("client.base_url must be an absolute URL, got %q", c.Client.BaseURL))
	}
	if c.Client.RowsPerPage < 1 {
		errs = append(errs, fmt.Errorf("client.rows_per_page must be positive, got %d", c.Client.RowsPerPage))
	}
	if c.Client.Timeout < 0 {
		errs = append(errs, fmt.Errorf("client.timeout must not be negative, got %s", c.Client.Timeout))
	}
	if c.Client.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("client.rate_limit must not be negative, got %v", c.Client.RateLimit))
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
