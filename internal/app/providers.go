package app

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/listing-proxy/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// newRedisClient returns nil when no redis url is configured; only the redis
// quota lock needs one.
func newRedisClient(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}
