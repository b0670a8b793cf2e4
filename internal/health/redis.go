package health

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisChecker pings the shared cache and rate limit store.
type RedisChecker struct {
	client redis.UniversalClient
}

// NewRedisChecker creates a Redis checker.
func NewRedisChecker(client redis.UniversalClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// HealthCheck sends PING.
func (r *RedisChecker) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
