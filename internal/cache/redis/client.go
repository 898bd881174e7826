// Package redis adapts Redis sorted sets and lists to the cache-facing
// interfaces. One client is constructed at startup and injected into both
// adapters; boot fails fast if Redis is unreachable, but per-call failures
// afterwards only degrade the read/write paths they occur on.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultOpTimeout = 500 * time.Millisecond

// Client wraps the shared go-redis connection together with the per-call
// timeout every adapter operation is bounded by.
type Client struct {
	rdb       *redis.Client
	opTimeout time.Duration
}

// NewClient connects to Redis and verifies reachability with a ping.
// opTimeout bounds each subsequent cache call; zero selects the default.
func NewClient(addr, password string, db int, dialTimeout, opTimeout time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: dialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}

	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}

	slog.Info("[Redis] Client connected", "addr", addr, "db", db, "op_timeout", opTimeout)

	return &Client{rdb: rdb, opTimeout: opTimeout}, nil
}

// NewClientFromRedis wraps an existing go-redis client. Used by tests that
// run against an in-process server.
func NewClientFromRedis(rdb *redis.Client, opTimeout time.Duration) *Client {
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	return &Client{rdb: rdb, opTimeout: opTimeout}
}

// Ping reports Redis reachability. The health endpoint calls this.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// opContext derives the bounded per-call context every adapter op uses.
func (c *Client) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opTimeout)
}
