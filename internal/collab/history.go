package collab

import "time"

// EditRecord is one entry of a session's recent-edit history. The history is
// kept for debugging and forensic replay only; it plays no part in conflict
// resolution.
type EditRecord struct {
	Username string
	Content  string
	Version  int64
	At       time.Time
}

// editHistory is a fixed-capacity ring of recent edits, oldest dropped first.
type editHistory struct {
	capacity int
	buf      []EditRecord
	start    int
	size     int
}

func newEditHistory(capacity int) *editHistory {
	if capacity <= 0 {
		capacity = 100
	}
	return &editHistory{capacity: capacity, buf: make([]EditRecord, capacity)}
}

func (h *editHistory) add(rec EditRecord) {
	if h.size < h.capacity {
		h.buf[(h.start+h.size)%h.capacity] = rec
		h.size++
		return
	}
	h.buf[h.start] = rec
	h.start = (h.start + 1) % h.capacity
}

// records returns the history oldest first.
func (h *editHistory) records() []EditRecord {
	out := make([]EditRecord, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.buf[(h.start+i)%h.capacity]
	}
	return out
}
