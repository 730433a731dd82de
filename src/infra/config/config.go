// Package config handles application configuration.
//
// Non-secret settings come from environment variables with the prefix "APP",
// parsed by kelseyhightower/envconfig. Backend credentials are never read
// here; they are resolved through the credentials package and assembled by
// BuildPostgres and BuildRedis.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
// Values are loaded from environment variables with the prefix "APP".
// Example: APP_PORT=8000, APP_LOG_LEVEL=debug
type Config struct {
	// Server configuration (loaded flat, e.g. APP_PORT)
	Server ServerConfig

	// Pool holds connection pool sizing and timeouts
	Pool PoolConfig

	// Cache configuration
	Cache CacheConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8000)
	Port int `envconfig:"PORT" default:"8000"`

	// Host is the HTTP server host (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// ReadTimeout is the maximum duration for reading the entire request (default: 10s)
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`

	// WriteTimeout is the maximum duration before timing out writes of the response (default: 30s)
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`

	// ShutdownTimeout is the maximum duration to wait for active connections to finish (default: 30s)
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// PoolConfig holds the non-secret PostgreSQL pool settings.
type PoolConfig struct {
	// MinConns is the number of connections kept open (default: 1)
	MinConns int `envconfig:"DB_MIN_CONNS" default:"1"`

	// MaxConns caps concurrently leased connections (default: 2)
	MaxConns int `envconfig:"DB_MAX_CONNS" default:"2"`

	// ConnectTimeout bounds pool creation including the first round-trip (default: 10s)
	ConnectTimeout time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"10s"`

	// AcquireTimeout bounds the wait for a free connection (default: 5s)
	AcquireTimeout time.Duration `envconfig:"DB_ACQUIRE_TIMEOUT" default:"5s"`

	// SSLMode is the SSL mode for the connection (default: disable)
	SSLMode string `envconfig:"DB_SSLMODE" default:"disable"`

	// ConnMaxLifetime is the maximum lifetime of a connection (default: 5m)
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
}

// CacheConfig holds cache store settings.
type CacheConfig struct {
	// Enabled turns on the Redis cache client (default: false)
	Enabled bool `envconfig:"CACHE_ENABLED" default:"false"`

	// Environment is the deployment tag used to namespace cache credentials (default: dev)
	Environment string `envconfig:"ENV" default:"dev"`

	// DB is the Redis logical database index (default: 0)
	DB int `envconfig:"CACHE_DB" default:"0"`

	// TTL is how long a cached table listing stays valid (default: 30s)
	TTL time.Duration `envconfig:"CACHE_TTL" default:"30s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is the log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LOG_LEVEL" default:"info"`

	// Format is the log format: json, text, plain (default: json)
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks the pool bounds.
func (c *PoolConfig) Validate() error {
	if c.MinConns <= 0 {
		return fmt.Errorf("DB_MIN_CONNS must be positive, got %d", c.MinConns)
	}
	if c.MaxConns < c.MinConns {
		return fmt.Errorf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.MaxConns, c.MinConns)
	}
	if c.ConnectTimeout <= 0 {
		return errors.New("DB_CONNECT_TIMEOUT must be positive")
	}
	if c.AcquireTimeout <= 0 {
		return errors.New("DB_ACQUIRE_TIMEOUT must be positive")
	}
	return nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding existing ones. With no arguments it reads
// ./.env. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables.
// It returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	var cfg Config

	// Load each config section separately to flatten env var names
	// This allows env vars like APP_PORT instead of APP_SERVER_PORT
	if err := envconfig.Process("APP", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load server config: %w", err)
	}
	if err := envconfig.Process("APP", &cfg.Pool); err != nil {
		return nil, fmt.Errorf("failed to load pool config: %w", err)
	}
	if err := envconfig.Process("APP", &cfg.Cache); err != nil {
		return nil, fmt.Errorf("failed to load cache config: %w", err)
	}
	if err := envconfig.Process("APP", &cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to load log config: %w", err)
	}

	if err := cfg.Pool.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pool config: %w", err)
	}

	return &cfg, nil
}
