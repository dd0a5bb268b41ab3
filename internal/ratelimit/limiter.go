// Package ratelimit bounds failed login attempts per identifier within a
// rolling window. Successful logins never record an attempt, so a user who
// eventually types the right password is not penalized for earlier mistakes.
package ratelimit

import (
	"context"
	"time"
)

// FailureLimiter is what the login path depends on.
type FailureLimiter interface {
	// Check reports whether another attempt is currently allowed.
	Check(ctx context.Context, identifier string) (bool, error)
	// Record registers one failed attempt.
	Record(ctx context.Context, identifier string) error
}

// Store persists attempt entries. Identifiers look like "<client-ip>_login".
type Store interface {
	Prune(ctx context.Context, identifier string, cutoff time.Time) error
	Count(ctx context.Context, identifier string, cutoff time.Time) (int, error)
	Append(ctx context.Context, identifier string, at time.Time) error
}

// Limiter counts recent attempts against a Store. The limit is soft: two
// concurrent attempts can both pass Check before either records, so callers
// must treat maxAttempts as advisory, not a hard cap.
type Limiter struct {
	store       Store
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

// New builds a window limiter. maxAttempts and window come from config.
func New(store Store, maxAttempts int, window time.Duration) *Limiter {
	return &Limiter{
		store:       store,
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// Check prunes entries older than the window and counts what remains. Prune
// and count share one cutoff so an entry can never be counted on one call
// and pruned on the next inconsistently.
func (l *Limiter) Check(ctx context.Context, identifier string) (bool, error) {
	cutoff := l.now().Add(-l.window)
	if err := l.store.Prune(ctx, identifier, cutoff); err != nil {
		return false, err
	}
	count, err := l.store.Count(ctx, identifier, cutoff)
	if err != nil {
		return false, err
	}
	return count < l.maxAttempts, nil
}

// Record appends one attempt at the current time.
func (l *Limiter) Record(ctx context.Context, identifier string) error {
	return l.store.Append(ctx, identifier, l.now())
}
