// Package cache provides the Redis access layer: sessions and rate limits.
// Every request that carries a session cookie does one GET here, and every
// auth form post runs the token-bucket script.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client settings. Timeouts are short so the rate limiter fails open
// quickly and a session lookup never stalls a page.
const (
	clientName      = "reacts"
	poolSize        = 20
	minIdleConns    = 2
	dialTimeout     = 2 * time.Second
	ioTimeout       = 500 * time.Millisecond
	poolTimeout     = time.Second
	connMaxIdleTime = 5 * time.Minute
)

// Cache holds sessions and rate-limit buckets.
type Cache struct {
	client *redis.Client
}

// New connects to redisURL and verifies the connection.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := clientOptions(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// clientOptions parses redisURL and applies the client settings.
func clientOptions(redisURL string) (*redis.Options, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if opt.ClientName == "" {
		opt.ClientName = clientName
	}
	opt.PoolSize = poolSize
	opt.MinIdleConns = minIdleConns
	opt.DialTimeout = dialTimeout
	opt.ReadTimeout = ioTimeout
	opt.WriteTimeout = ioTimeout
	opt.PoolTimeout = poolTimeout
	opt.ConnMaxIdleTime = connMaxIdleTime

	return opt, nil
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Ping checks Redis connectivity. Used by /readyz.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client for test setup.
func (c *Cache) Client() *redis.Client {
	return c.client
}
