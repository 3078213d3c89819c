// Package fanout bridges edit traffic between service instances over a
// shared publish/subscribe bus. Delivery is best effort: unordered across
// instances, at-least-once at best, never relied on for durability.
package fanout

import (
	"context"
	"encoding/json"
)

// Message kinds carried on the bus.
const (
	KindEdit   = "edit"
	KindCursor = "cursor"
)

// EditMessage is the cross-instance payload for an accepted edit or a cursor
// move. Origin identifies the publishing instance so subscribers can avoid
// echoing a message back to the sender's own connections.
type EditMessage struct {
	Kind       string          `json:"kind"`
	DocumentID string          `json:"documentId"`
	UserID     string          `json:"userId"`
	Username   string          `json:"username"`
	Content    string          `json:"content,omitempty"`
	Cursor     json.RawMessage `json:"cursor,omitempty"`
	Position   json.RawMessage `json:"position,omitempty"`
	Version    int64           `json:"version,omitempty"`
	Origin     string          `json:"origin"`
}

// Handler consumes messages arriving from other instances. Handlers must not
// block; slow work should be handed off.
type Handler func(msg EditMessage)

// Bus publishes local edits to every other instance and subscribes to
// theirs. Implementations are safe for concurrent use.
type Bus interface {
	Publish(ctx context.Context, msg EditMessage) error
	// Subscribe registers the handler for all document channels. Only one
	// subscription per Bus is needed; the handler runs on the bus's receive
	// goroutine.
	Subscribe(ctx context.Context, h Handler) error
	Close() error
}
