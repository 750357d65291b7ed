// Package ratelimit implements per-key sliding-window rate limiting with
// pluggable storage. The window is a true sliding log: a request is admitted
// only if fewer than Max requests were admitted in the trailing Window, so
// there is no burst artifact at window boundaries.
package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Rule is the static per-route limit configuration.
type Rule struct {
	KeyPrefix string
	Max       int
	Window    time.Duration
}

// Decision is the outcome of a limit check. RetryAfter is only meaningful
// when Allowed is false; it is the time until the oldest admitted request
// leaves the window.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Store performs the atomic prune-count-admit cycle for one key. A request
// that would push the in-window count past max must be rejected, never
// admitted and corrected later.
type Store interface {
	Take(ctx context.Context, key string, max int, window time.Duration) (Decision, error)
}

// Limiter applies rules against a Store.
type Limiter struct {
	store  Store
	logger *zap.Logger
}

func NewLimiter(store Store, logger *zap.Logger) *Limiter {
	return &Limiter{store: store, logger: logger}
}

// Check runs rule against the identifier (typically a client IP). Store
// failures are swallowed and the request is admitted: the limiter protects
// against abuse, and an unavailable store must not take the platform down
// with it.
func (l *Limiter) Check(ctx context.Context, rule Rule, identifier string) Decision {
	key := rule.KeyPrefix + ":" + identifier
	d, err := l.store.Take(ctx, key, rule.Max, rule.Window)
	if err != nil {
		l.logger.Warn("rate limit store unavailable, admitting request",
			zap.String("key", key),
			zap.Error(err))
		return Decision{Allowed: true}
	}
	return d
}
