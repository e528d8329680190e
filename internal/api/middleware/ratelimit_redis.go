package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares fixed-window counters between server instances
type RedisLimiter struct {
	client   redis.Cmdable
	prefix   string
	requests int
	window   time.Duration
}

// NewRedisLimiter allows requests per window for each client, counted in Redis
func NewRedisLimiter(client redis.Cmdable, requests int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		prefix:   "murmur:ratelimit:",
		requests: requests,
		window:   window,
	}
}

// Allow implements Limiter with INCR + TTL in one round trip, then EXPIRE when
// the window opens. Plain EXPIRE keeps this working on Redis versions before 7.0.
// A counter that lost its TTL gets one on its next hit.
func (rl *RedisLimiter) Allow(ctx context.Context, clientID string) (bool, error) {
	key := rl.prefix + clientID

	pipe := rl.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to count request: %w", err)
	}

	// TTL reports -1 for a key without an expiry
	if incr.Val() == 1 || ttl.Val() == -1 {
		if err := rl.client.Expire(ctx, key, rl.window).Err(); err != nil {
			return false, fmt.Errorf("failed to start window: %w", err)
		}
	}

	return incr.Val() <= int64(rl.requests), nil
}
