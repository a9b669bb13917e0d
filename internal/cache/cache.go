// Package cache wraps the Redis client used by the key-value endpoints.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"
)

// ErrKeyNotFound is returned when a key does not exist in the cache.
var ErrKeyNotFound = errors.New("key not found")

// Config contains configuration for the cache client.
type Config struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// Password authenticates the connection. Empty means unauthenticated;
	// commands will fail against a password-protected server and those
	// failures surface per request.
	Password string

	// DB is the logical database number.
	DB int
}

// Client is a thin wrapper over the Redis client.
type Client struct {
	rdb *redis.Client
	log hclog.Logger
}

// New creates a cache client. The connection is verified separately with
// Ping so an unreachable cache does not block construction.
func New(cfg Config, log hclog.Logger) *Client {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		log: log,
	}
}

// Ping verifies connectivity, retrying with exponential backoff until the
// context is done or the attempts are exhausted.
func (c *Client) Ping(ctx context.Context) error {
	op := func() error {
		return c.rdb.Ping(ctx).Err()
	}
	notify := func(err error, next time.Duration) {
		c.log.Warn("cache ping failed, retrying",
			"error", err, "next_attempt_in", next)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return fmt.Errorf("failed to connect to cache: %w", err)
	}

	c.log.Info("connected to cache")
	return nil
}

// Set writes a key with the given expiry.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return nil
}

// Get reads a key, reporting a miss as ErrKeyNotFound.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	value, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, nil
}

// Delete removes a key, reporting a miss as ErrKeyNotFound.
func (c *Client) Delete(ctx context.Context, key string) error {
	deleted, err := c.rdb.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	if deleted == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
