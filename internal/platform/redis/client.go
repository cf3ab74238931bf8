// Package redis wraps go-redis for the two places this service touches
// Redis: TTL'd draft snapshots and the catalog refresh marker.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"cornerstone/internal/platform/config"
)

// Client embeds *redis.Client so the draft store and refresh marker get the
// full command surface, while wiring code only deals with Health and Close.
type Client struct {
	*redis.Client
}

// New connects using the configured URL and verifies the connection with a
// ping. An empty URL returns (nil, nil): drafts and refresh markers simply
// stay disabled.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.ClientName = "cornerstone"
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health reports whether the connection still answers pings.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}
