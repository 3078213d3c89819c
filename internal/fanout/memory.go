package fanout

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus connecting multiple subscribers in one test
// binary. Publish delivers synchronously to every handler, including the
// publisher's own; callers filter by Origin the same way they do against a
// real bus.
type MemoryBus struct {
	mu       sync.Mutex
	handlers []Handler
	closed   bool
}

// NewMemoryBus returns an empty MemoryBus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Publish delivers msg to all registered handlers.
func (b *MemoryBus) Publish(ctx context.Context, msg EditMessage) error {
	b.mu.Lock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil
	}
	for _, h := range handlers {
		h(msg)
	}
	return nil
}

// Subscribe registers h for all future publishes.
func (b *MemoryBus) Subscribe(ctx context.Context, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
	return nil
}

// Close drops all handlers.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = nil
	b.closed = true
	return nil
}
