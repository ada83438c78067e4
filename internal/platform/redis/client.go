package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"neurowatch/internal/platform/config"
)

// Client wraps the go-redis client backing the shared review queue. The
// embedded client is exported so the queue store can issue pipelines and
// transactions directly.
type Client struct {
	*redis.Client
}

// New connects to the queue backend named by the configuration. An empty URL
// means the deployment runs without Redis; callers get a nil client and fall
// back to the in-memory queue.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	// URL parameters win; config overrides apply only when set.
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Client{Client: client}, nil
}
