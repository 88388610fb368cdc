// Package config loads process configuration from the environment, with
// optional .env overlay for local development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config captures environment driven configuration for the coordinator service.
type Config struct {
	HTTPPort       int           `env:"COORDINATOR_HTTP_PORT" envDefault:"8080"`
	SQLiteDSN      string        `env:"COORDINATOR_SQLITE_DSN" envDefault:"file:coordinator.db?_pragma=foreign_keys(1)"`
	BaseURL        string        `env:"COORDINATOR_BASE_URL" envDefault:"http://localhost:8080"`
	SessionTTL     time.Duration `env:"COORDINATOR_SESSION_TTL" envDefault:"24h"`
	ResponseWindow time.Duration `env:"COORDINATOR_RESPONSE_WINDOW" envDefault:"168h"`
	DateCacheTTL   time.Duration `env:"COORDINATOR_DATE_CACHE_TTL" envDefault:"30s"`
	DateCacheSize  int           `env:"COORDINATOR_DATE_CACHE_SIZE" envDefault:"8"`
	LogLevel       string        `env:"COORDINATOR_LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file, parses the environment, and validates
// the result.
func Load() (Config, error) {
	// Missing .env files are expected outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	invalid := make([]string, 0, 2)
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		invalid = append(invalid, "COORDINATOR_HTTP_PORT")
	}
	if strings.TrimSpace(c.SQLiteDSN) == "" {
		invalid = append(invalid, "COORDINATOR_SQLITE_DSN")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		invalid = append(invalid, "COORDINATOR_BASE_URL")
	}
	if c.SessionTTL <= 0 {
		invalid = append(invalid, "COORDINATOR_SESSION_TTL")
	}
	if c.ResponseWindow <= 0 {
		invalid = append(invalid, "COORDINATOR_RESPONSE_WINDOW")
	}
	if c.DateCacheTTL <= 0 || c.DateCacheSize <= 0 {
		invalid = append(invalid, "COORDINATOR_DATE_CACHE_TTL")
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return nil
}
