// Package producer defines the interface for emitting activity events (e.g. to Kafka).
package producer

import (
	"context"
	"time"
)

// ActivityEvent describes one notable action in the editing platform:
// a session opening or closing, a document being persisted, a user joining.
type ActivityEvent struct {
	Type       string    `json:"type"`
	DocumentID string    `json:"documentId,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	Username   string    `json:"username,omitempty"`
	Version    int64     `json:"version,omitempty"`
	Instance   string    `json:"instance,omitempty"`
	At         time.Time `json:"at"`
}

// Activity event types emitted by the collaboration service.
const (
	TypeSessionOpened     = "session_opened"
	TypeUserJoined        = "user_joined"
	TypeUserLeft          = "user_left"
	TypeDocumentPersisted = "document_persisted"
)

// Producer emits activity events. Callers use it best-effort: log and ignore errors.
type Producer interface {
	// Emit sends a single activity event. Implementations may block briefly; call from a goroutine if needed.
	// Returns an error only on write failure; callers typically log and ignore.
	Emit(ctx context.Context, event ActivityEvent) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
