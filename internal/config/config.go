package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the keyword service.
// Environment variables are parsed from the KEYWORD_SERVICE_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage: "auto" derives postgres when a DSN is set, sqlite otherwise.
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"data/keywordpulse.db"`

	// Cache backend: "db" stores entries next to the other tables,
	// "redis" uses a dedicated redis instance with native TTLs.
	CacheBackend  string `envconfig:"CACHE_BACKEND" default:"db"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Upstream trends provider. An empty base URL disables the live path
	// and the fetcher runs on synthetic generation only.
	TrendsBaseURL        string `envconfig:"TRENDS_BASE_URL" default:""`
	TrendsRegion         string `envconfig:"TRENDS_REGION" default:"US"`
	TrendsTimeoutSeconds int    `envconfig:"TRENDS_TIMEOUT_SECONDS" default:"30"`
	TrendsMaxRetries     int    `envconfig:"TRENDS_MAX_RETRIES" default:"3"`
	TrendsRequestDelayMS int    `envconfig:"TRENDS_REQUEST_DELAY_MS" default:"1000"`

	// Identity header stamped by the auth proxy in front of the service.
	IdentityHeader string `envconfig:"IDENTITY_HEADER" default:"X-Auth-Email"`

	// Maintenance & health probing
	CacheEvictionIntervalMinutes int `envconfig:"CACHE_EVICTION_INTERVAL_MINUTES" default:"60"`
	HealthIntervalSeconds        int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds    int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults derives DBDriver when set to "auto" and validates the
// driver and cache backend choices.
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == "" || c.DBDriver == "auto" {
		if c.PostgresDSN != "" {
			c.DBDriver = "postgres"
		} else {
			c.DBDriver = "sqlite"
		}
	}

	allowedDB := map[string]bool{"postgres": true, "sqlite": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("DB_DRIVER=postgres requires POSTGRES_DSN")
	}

	allowedCache := map[string]bool{"db": true, "redis": true}
	if !allowedCache[c.CacheBackend] {
		return fmt.Errorf("unsupported CACHE_BACKEND: %s", c.CacheBackend)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Example: KEYWORD_SERVICE_HTTP_PORT, KEYWORD_SERVICE_POSTGRES_DSN.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("KEYWORD_SERVICE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("db_driver", cfg.DBDriver).
		Str("cache_backend", cfg.CacheBackend).
		Bool("trends_live_api", cfg.TrendsBaseURL != "").
		Str("trends_region", cfg.TrendsRegion).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config suitable for tests: in-memory friendly
// sqlite storage, db cache, synthetic-only fetching.
func NewForTesting() *Config {
	cfg := &Config{
		Environment:                  EnvTesting,
		HTTPPort:                     8080,
		DBDriver:                     "sqlite",
		SQLitePath:                   "",
		CacheBackend:                 "db",
		TrendsRegion:                 "US",
		TrendsTimeoutSeconds:         5,
		TrendsMaxRetries:             1,
		TrendsRequestDelayMS:         10,
		IdentityHeader:               "X-Auth-Email",
		CacheEvictionIntervalMinutes: 60,
		HealthIntervalSeconds:        30,
		HealthProbeTimeoutSeconds:    2,
	}
	return cfg
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool { return c.Environment == EnvTesting }

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }
