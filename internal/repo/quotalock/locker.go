// Package quotalock serialises quota-checked creations per caller.
package quotalock

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/listing-proxy/internal/config"
	"github.com/redis/go-redis/v9"
)

// Locker hands out a per-key exclusive section. The returned unlock must be
// called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func NewLocker(cfg *config.Config, rdb *redis.Client) (Locker, error) {
	switch cfg.Quota.Lock {
	case "", "none":
		return noopLocker{}, nil
	case "local":
		return NewLocalLocker(), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis lock requires a redis client")
		}
		return NewRedisLocker(rdb, cfg.Quota.LockTTL), nil
	default:
		return nil, fmt.Errorf("unknown quota lock %q", cfg.Quota.Lock)
	}
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}
