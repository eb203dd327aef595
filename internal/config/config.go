package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
//
// Infrastructure settings come from the environment. The Battle.net API
// credentials and the cached OAuth access token live in the config table of
// the database (see repository.ConfigRepository); the BNET_API_* variables
// below only seed that table on startup when set.
type Config struct {
	// Battle.net API
	BnetAPIKey     string        `envconfig:"BNET_API_KEY" default:""`
	BnetAPISecret  string        `envconfig:"BNET_API_SECRET" default:""`
	BnetAPITimeout time.Duration `envconfig:"BNET_API_TIMEOUT" default:"60s"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"sc2monitor"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"sc2monitor"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Polling
	PollInterval      time.Duration `envconfig:"POLL_INTERVAL" default:"120s"`
	PollConcurrency   int           `envconfig:"POLL_CONCURRENCY" default:"4"`
	SeasonRefreshCron string        `envconfig:"SEASON_REFRESH_CRON" default:"0 3 * * *"`
	MatchRetention    time.Duration `envconfig:"MATCH_RETENTION" default:"2160h"`

	// Caching TTL
	CacheTTLSeason   time.Duration `envconfig:"CACHE_TTL_SEASON" default:"6h"`
	CacheTTLMetadata time.Duration `envconfig:"CACHE_TTL_METADATA" default:"1h"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`

	// Log sink
	EnableDBLogSink bool `envconfig:"ENABLE_DB_LOG_SINK" default:"true"`
}

// Load loads configuration from environment variables, reading a .env file
// first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.PollConcurrency < 1 {
		return fmt.Errorf("POLL_CONCURRENCY must be at least 1")
	}
	return nil
}

// RedisAddr returns the Redis address.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// MustLoad loads configuration or exits on error. Use this in main() where
// we want to fail fast.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
