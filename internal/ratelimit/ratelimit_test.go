package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type failingCounter struct{}

func (failingCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	return 0, errors.New("backend down")
}

func TestLimiter_AllowWithinLimit(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(NewMemoryCounter(clock.Now), 3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow(ctx, "1.2.3.4") {
			t.Fatalf("request %d rejected within limit", i+1)
		}
	}
	if l.Allow(ctx, "1.2.3.4") {
		t.Error("request over the limit admitted")
	}

	// Other keys are counted independently.
	if !l.Allow(ctx, "5.6.7.8") {
		t.Error("unrelated key rejected")
	}
}

func TestLimiter_WindowResets(t *testing.T) {
	ctx := context.Background()
	clock := &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(NewMemoryCounter(clock.Now), 1, time.Minute)

	if !l.Allow(ctx, "k") {
		t.Fatal("first request rejected")
	}
	if l.Allow(ctx, "k") {
		t.Fatal("second request in window admitted")
	}

	clock.Advance(61 * time.Second)
	if !l.Allow(ctx, "k") {
		t.Error("request after window reset rejected")
	}
}

func TestLimiter_FailsOpen(t *testing.T) {
	l := NewLimiter(failingCounter{}, 1, time.Minute)
	for i := 0; i < 5; i++ {
		if !l.Allow(context.Background(), "k") {
			t.Fatal("request rejected while backend is down")
		}
	}
}

func TestLimiter_DisabledWhenLimitZero(t *testing.T) {
	l := NewLimiter(NewMemoryCounter(nil), 0, time.Minute)
	for i := 0; i < 10; i++ {
		if !l.Allow(context.Background(), "k") {
			t.Fatal("disabled limiter rejected a request")
		}
	}
}
