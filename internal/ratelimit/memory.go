package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

// MemoryCounter is an in-process Counter for tests and single-instance runs.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	now     func() time.Time
}

// NewMemoryCounter builds a MemoryCounter. now may be nil for the wall clock.
func NewMemoryCounter(now func() time.Time) *MemoryCounter {
	if now == nil {
		now = time.Now
	}
	return &MemoryCounter{windows: map[string]*memoryWindow{}, now: now}
}

func (c *MemoryCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	w, ok := c.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &memoryWindow{resetAt: now.Add(window)}
		c.windows[key] = w
	}
	w.count++
	return w.count, nil
}
