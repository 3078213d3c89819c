// Package ratelimit implements a fixed-window request limiter keyed by
// caller identity (client IP for the HTTP API).
package ratelimit

import (
	"context"
	"log"
	"time"
)

// Counter increments the hit count for a key inside the current window and
// returns the count after the increment. The first hit of a window starts it.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter enforces at most limit hits per key per window. A failing counter
// backend fails open: requests are admitted rather than dropped.
type Limiter struct {
	counter Counter
	limit   int64
	window  time.Duration
}

// NewLimiter builds a Limiter. limit <= 0 disables limiting entirely.
func NewLimiter(counter Counter, limit int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{counter: counter, limit: int64(limit), window: window}
}

// Allow reports whether another hit for key fits in the current window.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.limit <= 0 {
		return true
	}
	count, err := l.counter.Incr(ctx, key, l.window)
	if err != nil {
		log.Printf("ratelimit: counter incr %s: %v (failing open)", key, err)
		return true
	}
	return count <= l.limit
}
