package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendMemory  = "memory"
	BackendSurreal = "surreal"
	BackendBadger  = "badger"
)

// Provider exposes configuration values to the rest of the application.
// Packages depend on this interface so tests can swap in fixed values.
type Provider interface {
	GetAppAddr() string
	GetStoreBackend() string
	GetDBURL() string
	GetDBNs() string
	GetDBDb() string
	GetDBUser() string
	GetDBPass() string
	GetDBQueryTimeout() time.Duration
	GetDBExecuteTimeout() time.Duration
	GetBadgerPath() string
	GetSweepInterval() time.Duration
	GetIdleTimeout() time.Duration
	GetLogFormat() string
	GetLogLevel() string
	GetCORSAllowOrigins() []string
	GetRateLimitPerMinute() int
}

// Config holds all configuration for the application.
type Config struct {
	AppAddr      string `envconfig:"APP_ADDR" default:":5000"`
	StoreBackend string `envconfig:"STORE_BACKEND" default:"memory"`

	DBUrl            string        `envconfig:"SURREAL_URL"`
	DBNs             string        `envconfig:"SURREAL_NS"`
	DBDb             string        `envconfig:"SURREAL_DB"`
	DBUser           string        `envconfig:"SURREAL_USER"`
	DBPass           string        `envconfig:"SURREAL_PASS"`
	DBQueryTimeout   time.Duration `envconfig:"DB_QUERY_TIMEOUT" default:"5s"`
	DBExecuteTimeout time.Duration `envconfig:"DB_EXECUTE_TIMEOUT" default:"10s"`

	BadgerPath string `envconfig:"BADGER_PATH" default:"data/badger"`

	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"15s"`
	IdleTimeout   time.Duration `envconfig:"IDLE_TIMEOUT" default:"10s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	CORSAllowOrigins   []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
	RateLimitPerMinute int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"10"`
}

var _ Provider = (*Config)(nil)

// New loads a .env file if one is present, then reads the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the selected backend has what it needs and that all
// durations are usable.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.StoreBackend) {
	case BackendMemory, BackendBadger:
	case BackendSurreal:
		if c.DBUrl == "" || c.DBNs == "" || c.DBDb == "" {
			errs = append(errs, errors.New("SURREAL_URL, SURREAL_NS and SURREAL_DB are required for the surreal backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	durations := map[string]time.Duration{
		"DB_QUERY_TIMEOUT":   c.DBQueryTimeout,
		"DB_EXECUTE_TIMEOUT": c.DBExecuteTimeout,
		"SWEEP_INTERVAL":     c.SweepInterval,
		"IDLE_TIMEOUT":       c.IdleTimeout,
	}
	for _, key := range []string{"DB_QUERY_TIMEOUT", "DB_EXECUTE_TIMEOUT", "SWEEP_INTERVAL", "IDLE_TIMEOUT"} {
		if durations[key] <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", key, durations[key]))
		}
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute))
	}
	return errors.Join(errs...)
}

func (c *Config) GetAppAddr() string                 { return c.AppAddr }
func (c *Config) GetStoreBackend() string            { return strings.ToLower(c.StoreBackend) }
func (c *Config) GetDBURL() string                   { return c.DBUrl }
func (c *Config) GetDBNs() string                    { return c.DBNs }
func (c *Config) GetDBDb() string                    { return c.DBDb }
func (c *Config) GetDBUser() string                  { return c.DBUser }
func (c *Config) GetDBPass() string                  { return c.DBPass }
func (c *Config) GetDBQueryTimeout() time.Duration   { return c.DBQueryTimeout }
func (c *Config) GetDBExecuteTimeout() time.Duration { return c.DBExecuteTimeout }
func (c *Config) GetBadgerPath() string              { return c.BadgerPath }
func (c *Config) GetSweepInterval() time.Duration    { return c.SweepInterval }
func (c *Config) GetIdleTimeout() time.Duration      { return c.IdleTimeout }
func (c *Config) GetLogFormat() string               { return c.LogFormat }
func (c *Config) GetLogLevel() string                { return c.LogLevel }
func (c *Config) GetCORSAllowOrigins() []string      { return c.CORSAllowOrigins }
func (c *Config) GetRateLimitPerMinute() int         { return c.RateLimitPerMinute }
