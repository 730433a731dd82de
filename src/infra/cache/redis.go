// Package cache provides the Redis-backed cache store.
//
// The client is built from a config.RedisConfig resolved through the
// credentials package, pinged once at creation and closed once at shutdown.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"budgettool/src/core/domain"
	"budgettool/src/infra/config"
)

// KeyPrefix namespaces every key written by this service.
const KeyPrefix = "budget:"

// Options tunes the Redis client.
type Options struct {
	DB             int
	PoolSize       int
	ConnectTimeout time.Duration
	TTL            time.Duration
}

// Client wraps a go-redis client.
type Client struct {
	rdb       *redis.Client
	ttl       time.Duration
	log       *slog.Logger
	closeOnce sync.Once
	closeErr  error
}

// Open creates the client and verifies it with a PING bounded by
// opts.ConnectTimeout. Failure is reported as a *domain.PoolCreationError.
func Open(ctx context.Context, cfg *config.RedisConfig, opts Options, log *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          opts.DB,
		PoolSize:    opts.PoolSize,
		DialTimeout: opts.ConnectTimeout,
	})

	pingCtx := ctx
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, &domain.PoolCreationError{Addr: cfg.Addr(), Err: err}
	}

	log.Info("cache connection established", "redis", cfg)
	return &Client{rdb: rdb, ttl: opts.TTL, log: log}, nil
}

// Health pings Redis.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the client's connections. Repeated calls return the first result.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.rdb.Close()
		c.log.Info("cache connection closed")
	})
	return c.closeErr
}

// WithConn runs fn on a dedicated connection and returns it to the pool
// however fn exits.
func (c *Client) WithConn(ctx context.Context, fn func(ctx context.Context, conn *redis.Conn) error) error {
	conn := c.rdb.Conn(ctx)
	defer conn.Close()
	return fn(ctx, conn)
}

// GetResult loads a cached query result. The boolean is false on a miss.
func (c *Client) GetResult(ctx context.Context, key string) (*domain.QueryResult, bool, error) {
	var res domain.QueryResult
	err := c.WithConn(ctx, func(ctx context.Context, conn *redis.Conn) error {
		raw, err := conn.Get(ctx, KeyPrefix+key).Bytes()
		if err != nil {
			return err
		}
		// numbers stay json.Number so numeric scale and int64 precision
		// survive the round trip
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		return dec.Decode(&res)
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return &res, true, nil
}

// SetResult stores a query result under key for the configured TTL.
func (c *Client) SetResult(ctx context.Context, key string, res *domain.QueryResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return c.WithConn(ctx, func(ctx context.Context, conn *redis.Conn) error {
		if err := conn.Set(ctx, KeyPrefix+key, raw, c.ttl).Err(); err != nil {
			return fmt.Errorf("cache set %s: %w", key, err)
		}
		return nil
	})
}
