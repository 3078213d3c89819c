package collab

import (
	"sync"

	"github.com/google/uuid"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/security"
)

// Sender delivers an encoded server event to one connection. Implementations
// must not block; report false when the connection can no longer accept
// messages.
type Sender interface {
	Send(payload []byte) bool
}

// Conn is the service-side state of one client connection: a verified
// identity, fixed for the connection's lifetime, and at most one joined
// document.
type Conn struct {
	id       string
	identity security.Identity
	out      Sender

	mu        sync.Mutex
	activeDoc string
}

// NewConn returns connection state for the given verified identity. out
// receives every event addressed to this connection.
func NewConn(identity security.Identity, out Sender) *Conn {
	return &Conn{
		id:       uuid.New().String(),
		identity: identity,
		out:      out,
	}
}

// ID returns the per-connection identifier.
func (c *Conn) ID() string { return c.id }

// Identity returns the connection's verified identity.
func (c *Conn) Identity() security.Identity { return c.identity }

// ActiveDocument returns the document this connection is joined to, or "".
func (c *Conn) ActiveDocument() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeDoc
}

func (c *Conn) setActiveDocument(documentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeDoc = documentID
}

// send encodes and delivers an event to this connection only.
func (c *Conn) send(event string, data interface{}) {
	payload, err := encodeEvent(event, data)
	if err != nil {
		return
	}
	c.out.Send(payload)
}
