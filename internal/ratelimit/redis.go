package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterLimiter is the stricter variant: one redis counter per identifier,
// bumped atomically with an expiry set on the first failure. Unlike the
// window limiter the increment cannot race with itself, so the recorded
// failure count is exact. The window is fixed from the first failure rather
// than sliding.
type CounterLimiter struct {
	rdb         *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewCounter builds a redis-backed limiter.
func NewCounter(rdb *redis.Client, maxAttempts int, window time.Duration) *CounterLimiter {
	return &CounterLimiter{rdb: rdb, maxAttempts: maxAttempts, window: window}
}

func (l *CounterLimiter) key(identifier string) string {
	return "ratelimit:" + identifier
}

// Check reads the current failure count.
func (l *CounterLimiter) Check(ctx context.Context, identifier string) (bool, error) {
	count, err := l.rdb.Get(ctx, l.key(identifier)).Int()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return count < l.maxAttempts, nil
}

// Record bumps the counter, starting the lockout window on the first failure.
func (l *CounterLimiter) Record(ctx context.Context, identifier string) error {
	count, err := l.rdb.Incr(ctx, l.key(identifier)).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return l.rdb.Expire(ctx, l.key(identifier), l.window).Err()
	}
	return nil
}
