package redis

import (
	"context"
	"fmt"

	"github.com/marcelovmendes/lyrixmatch/lyrics-worker/internal/config"
	"github.com/redis/go-redis/v9"
)

// Client is the shared connection behind the crawl status store and the
// lyrics cache.
type Client interface {
	Ping(ctx context.Context) error
	Close() error
	GetRDB() *redis.Client
}

type redisClient struct {
	rdb *redis.Client
}

// NewClient connects lazily; call Ping to verify the server is reachable.
// A URL in cfg takes precedence over host, port, password and DB.
func NewClient(cfg config.RedisConfig) (Client, error) {
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	return &redisClient{rdb: redis.NewClient(opts)}, nil
}

func clientOptions(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address(),
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	// Every matcher worker may hit the cache while the runner writes status.
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.IOTimeout > 0 {
		opts.ReadTimeout = cfg.IOTimeout
		opts.WriteTimeout = cfg.IOTimeout
	}
	return opts, nil
}

func (c *redisClient) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis at %s: %w", c.rdb.Options().Addr, err)
	}
	return nil
}

func (c *redisClient) Close() error {
	return c.rdb.Close()
}

func (c *redisClient) GetRDB() *redis.Client {
	return c.rdb
}
