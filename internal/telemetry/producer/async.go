package producer

import (
	"context"
	"log"
	"time"
)

// emitTimeout is the max time allowed for a single async emit. Used by EmitAsync and by ShutdownDrainDuration.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after the servers stop accepting
// work before closing the producer, so in-flight async emits have time to
// complete. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine with a short timeout so the caller is
// not blocked. Use from request paths for fire-and-forget activity; errors
// are logged.
//
// p may be nil; EmitAsync returns immediately without starting a goroutine.
// The goroutine uses context.Background() with emitTimeout so request
// cancellation does not abort an in-flight emit.
func EmitAsync(p Producer, event ActivityEvent) {
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := p.Emit(ctx, event); err != nil {
			log.Printf("activity: async emit failed: %v", err)
		}
	}()
}
