package config

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
)

// Credential groups. The cache group is suffixed with the deployment tag,
// e.g. "redis_dev".
const (
	PostgresGroup    = "postgres"
	RedisGroupPrefix = "redis_"
)

// Credential keys resolved for each backend. The database user is always
// looked up as "user" in the "postgres" group.
var (
	PostgresKeys = []string{"db", "host", "port", "user", "password"}
	RedisKeys    = []string{"host", "port", "password"}
)

// SecretResolver resolves a single credential value.
type SecretResolver interface {
	Value(ctx context.Context, group, key string) (string, error)
}

// PostgresConfig holds the connection settings of the primary relational store.
type PostgresConfig struct {
	Database string
	Host     string
	Port     int
	User     string
	Password string
}

// RedisConfig holds the connection settings of the cache store.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

// BuildPostgres resolves every required postgres credential and returns a
// validated config. Any missing key aborts the build; nothing partial is
// returned.
func BuildPostgres(ctx context.Context, r SecretResolver) (*PostgresConfig, error) {
	vals, err := resolveAll(ctx, r, PostgresGroup, PostgresKeys)
	if err != nil {
		return nil, err
	}
	port, err := parsePort(PostgresGroup, vals["port"])
	if err != nil {
		return nil, err
	}
	cfg := &PostgresConfig{
		Database: vals["db"],
		Host:     vals["host"],
		Port:     port,
		User:     vals["user"],
		Password: vals["password"],
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BuildRedis resolves the cache credentials for the given deployment tag.
func BuildRedis(ctx context.Context, r SecretResolver, env string) (*RedisConfig, error) {
	group := RedisGroup(env)
	vals, err := resolveAll(ctx, r, group, RedisKeys)
	if err != nil {
		return nil, err
	}
	port, err := parsePort(group, vals["port"])
	if err != nil {
		return nil, err
	}
	cfg := &RedisConfig{
		Host:     vals["host"],
		Port:     port,
		Password: vals["password"],
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RedisGroup returns the credential group for a deployment tag.
func RedisGroup(env string) string {
	return RedisGroupPrefix + env
}

func resolveAll(ctx context.Context, r SecretResolver, group string, keys []string) (map[string]string, error) {
	vals := make(map[string]string, len(keys))
	for _, k := range keys {
		v, err := r.Value(ctx, group, k)
		if err != nil {
			return nil, err
		}
		vals[k] = v
	}
	return vals, nil
}

func parsePort(group, raw string) (int, error) {
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("%s: invalid port %q", group, raw)
	}
	return port, nil
}

// Validate checks that every field is populated.
func (c *PostgresConfig) Validate() error {
	switch {
	case c.Database == "":
		return fmt.Errorf("%s: database is required", PostgresGroup)
	case c.Host == "":
		return fmt.Errorf("%s: host is required", PostgresGroup)
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("%s: port %d out of range", PostgresGroup, c.Port)
	case c.User == "":
		return fmt.Errorf("%s: user is required", PostgresGroup)
	case c.Password == "":
		return fmt.Errorf("%s: password is required", PostgresGroup)
	}
	return nil
}

// Addr returns host:port.
func (c *PostgresConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DSN returns the PostgreSQL connection URL with credentials escaped.
func (c *PostgresConfig) DSN(sslMode string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Addr(),
		Path:   "/" + c.Database,
	}
	if sslMode != "" {
		u.RawQuery = url.Values{"sslmode": {sslMode}}.Encode()
	}
	return u.String()
}

// LogValue implements slog.LogValuer and omits the password.
func (c *PostgresConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("database", c.Database),
		slog.String("host", c.Host),
		slog.Int("port", c.Port),
		slog.String("user", c.User),
	)
}

// Validate checks that every field is populated.
func (c *RedisConfig) Validate() error {
	switch {
	case c.Host == "":
		return fmt.Errorf("redis: host is required")
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("redis: port %d out of range", c.Port)
	case c.Password == "":
		return fmt.Errorf("redis: password is required")
	}
	return nil
}

// Addr returns host:port.
func (c *RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LogValue implements slog.LogValuer and omits the password.
func (c *RedisConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("host", c.Host),
		slog.Int("port", c.Port),
	)
}
