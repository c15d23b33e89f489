package quotalock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/logger/logctx"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "listing-proxy:quota-lock:"

// releaseScript deletes the lock only when it is still held by our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker shares the lock across replicas with SET NX PX. The TTL bounds
// how long a crashed holder can block the key.
type RedisLocker struct {
	rdb      *redis.Client
	ttl      time.Duration
	interval time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, interval: 50 * time.Millisecond}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		// the request context may already be done when unlocking
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.rdb, []string{redisKey}, token).Err(); err != nil {
			logctx.Warnw(ctx, "failed to release quota lock", "key", key, "error", err)
		}
	}, nil
}
