package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 2 * time.Second

// RedisBackend stores values in Redis. It exists for server-side proxy
// deployments where many visitors' identity and session state share one
// store. Redis errors degrade to miss/no-op; the SDK never blocks an
// event on storage health.
type RedisBackend struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisBackend wraps client. Keys expire after ttl; zero means
// DefaultCookieTTL for parity with the cookie backend.
func NewRedisBackend(client redis.UniversalClient, ttl time.Duration) *RedisBackend {
	if ttl <= 0 {
		ttl = DefaultCookieTTL
	}
	return &RedisBackend{client: client, ttl: ttl}
}

func (b *RedisBackend) Retrieve(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	value, err := b.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}

	// Sliding expiration, same contract as the cookie backend.
	b.client.Expire(ctx, key, b.ttl)

	return value, true
}

func (b *RedisBackend) Store(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	_ = b.client.Set(ctx, key, value, b.ttl).Err()
}
