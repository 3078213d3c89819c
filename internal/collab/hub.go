package collab

import (
	"sync"
)

// Hub tracks which connections on this instance are in which document room
// and fans events out to them. It knows nothing about other instances; the
// service bridges remote traffic in through the fan-out bus.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Conn]bool
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Conn]bool)}
}

// Add puts the connection in the document's room.
func (h *Hub) Add(documentID string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[documentID] == nil {
		h.rooms[documentID] = make(map[*Conn]bool)
	}
	h.rooms[documentID][c] = true
}

// Remove takes the connection out of the document's room.
func (h *Hub) Remove(documentID string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[documentID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, documentID)
		}
	}
}

// Broadcast encodes the event once and delivers it to every connection in
// the room except the one identified by exceptID (pass "" to reach all).
// Returns the number of connections reached.
func (h *Hub) Broadcast(documentID string, exceptID string, event string, data interface{}) int {
	payload, err := encodeEvent(event, data)
	if err != nil {
		return 0
	}
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.rooms[documentID]))
	for c := range h.rooms[documentID] {
		if c.id != exceptID {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range conns {
		if c.out.Send(payload) {
			delivered++
		}
	}
	return delivered
}

// RoomSize returns how many connections are in the document's room.
func (h *Hub) RoomSize(documentID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[documentID])
}
