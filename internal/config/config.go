package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/Unknown-2829/Hitek-db-api-web/internal/model"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Dataset drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the configuration for the lookup service.
// Environment variables are parsed from the HITEK_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// Dataset
	DatasetDriver string `envconfig:"DATASET_DRIVER" default:"sqlite"`
	DatasetPath   string `envconfig:"DATASET_PATH" default:"/data/users.db"`
	DatasetDSN    string `envconfig:"DATASET_DSN" default:""`

	// HTTP Configuration
	HTTPHost string `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8000"`

	// Access control
	AdminIDs         []string `envconfig:"ADMIN_IDS"`
	AllowedIDs       []string `envconfig:"ALLOWED_IDS"`
	AccessMode       string   `envconfig:"ACCESS_MODE" default:"private"`
	RateLimitSeconds float64  `envconfig:"RATE_LIMIT_SECONDS" default:"2"`

	// Query
	MaxResults           int           `envconfig:"MAX_RESULTS" default:"25"`
	DeepSearchDepth      int           `envconfig:"DEEP_SEARCH_DEPTH" default:"3"`
	RetryAttempts        int           `envconfig:"RETRY_ATTEMPTS" default:"4"`
	RetryInitialInterval time.Duration `envconfig:"RETRY_INITIAL_INTERVAL" default:"100ms"`
	RetryMaxElapsed      time.Duration `envconfig:"RETRY_MAX_ELAPSED" default:"1s"`
	// QueryTimeout bounds a whole dispatch. Lock contention gives up after
	// RetryMaxElapsed; the longer budget is for un-indexed scans.
	QueryTimeout time.Duration `envconfig:"QUERY_TIMEOUT" default:"10s"`
	CacheSize    int           `envconfig:"CACHE_SIZE" default:"10000"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"10m"`

	// Persisted state
	StatePath    string `envconfig:"STATE_PATH" default:"data/state.db"`
	AuditLogPath string `envconfig:"AUDIT_LOG_PATH" default:"search_history.log"`

	// Outbound messaging
	BroadcastInterval    time.Duration `envconfig:"BROADCAST_INTERVAL" default:"50ms"`
	BroadcastConcurrency int           `envconfig:"BROADCAST_CONCURRENCY" default:"1"`
	RelayURL             string        `envconfig:"RELAY_URL" default:""`
	RelayToken           string        `envconfig:"RELAY_TOKEN" default:""`

	// Health
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults normalises list options and clamps numeric options to usable values.
func (c *Config) ResolveDefaults() {
	c.AdminIDs = cleanIDs(c.AdminIDs)
	c.AllowedIDs = cleanIDs(c.AllowedIDs)
	c.DatasetDriver = strings.ToLower(strings.TrimSpace(c.DatasetDriver))
	c.AccessMode = strings.ToLower(strings.TrimSpace(c.AccessMode))
	if c.MaxResults <= 0 {
		c.MaxResults = 25
	}
	if c.DeepSearchDepth <= 0 {
		c.DeepSearchDepth = 1
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 1
	}
	if c.BroadcastConcurrency <= 0 {
		c.BroadcastConcurrency = 1
	}
	if c.RateLimitSeconds < 0 {
		c.RateLimitSeconds = 0
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.AdminIDs) == 0 {
		errs = append(errs, errors.New("ADMIN_IDS must name at least one administrator"))
	}
	if _, err := model.ParseAccessMode(c.AccessMode); err != nil {
		errs = append(errs, err)
	}
	switch c.DatasetDriver {
	case DriverSQLite:
		if _, err := os.Stat(c.DatasetPath); err != nil {
			errs = append(errs, fmt.Errorf("dataset not found at %s: %w", c.DatasetPath, err))
		}
	case DriverPostgres:
		if c.DatasetDSN == "" {
			errs = append(errs, errors.New("DATASET_DSN is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DATASET_DRIVER: %s", c.DatasetDriver))
	}
	return errors.Join(errs...)
}

// New creates a new Config by parsing environment variables
// prefixed with HITEK_, e.g. HITEK_HTTP_PORT, HITEK_ADMIN_IDS.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("HITEK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	cfg.ResolveDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("dataset_driver", cfg.DatasetDriver).
		Str("dataset_path", cfg.DatasetPath).
		Str("http_addr", cfg.GetHTTPAddr()).
		Int("admins", len(cfg.AdminIDs)).
		Int("allowed", len(cfg.AllowedIDs)).
		Str("access_mode", cfg.AccessMode).
		Float64("rate_limit_seconds", cfg.RateLimitSeconds).
		Int("max_results", cfg.MaxResults).
		Bool("relay_configured", cfg.RelayURL != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	cfg := &Config{
		Environment:               EnvTesting,
		LogLevel:                  "debug",
		DatasetDriver:             DriverSQLite,
		DatasetPath:               "testdata/users.db",
		HTTPHost:                  "127.0.0.1",
		HTTPPort:                  8000,
		AdminIDs:                  []string{"1"},
		AccessMode:                string(model.ModePublic),
		RateLimitSeconds:          2,
		MaxResults:                25,
		DeepSearchDepth:           3,
		RetryAttempts:             4,
		RetryInitialInterval:      time.Millisecond,
		RetryMaxElapsed:           50 * time.Millisecond,
		QueryTimeout:              time.Second,
		CacheSize:                 128,
		CacheTTL:                  time.Minute,
		StatePath:                 "state.db",
		AuditLogPath:              "search_history.log",
		BroadcastInterval:         0,
		BroadcastConcurrency:      1,
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
	}
	return cfg
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}

// RateLimitCooldown returns the per-caller cooldown.
func (c *Config) RateLimitCooldown() time.Duration {
	return time.Duration(c.RateLimitSeconds * float64(time.Second))
}

func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
