package presence

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and single-instance runs.
// The clock is injectable so TTL expiry can be exercised without sleeping.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	sets    map[string]map[string]bool
	expires map[string]time.Time
}

// NewMemoryStore returns a MemoryStore with the given TTL. now may be nil,
// in which case time.Now is used.
func NewMemoryStore(ttl time.Duration, now func() time.Time) *MemoryStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		ttl:     ttl,
		now:     now,
		sets:    make(map[string]map[string]bool),
		expires: make(map[string]time.Time),
	}
}

func (s *MemoryStore) expireLocked(documentID string) {
	if exp, ok := s.expires[documentID]; ok && !s.now().Before(exp) {
		delete(s.sets, documentID)
		delete(s.expires, documentID)
	}
}

// Add puts username in the document's member set and refreshes the TTL.
func (s *MemoryStore) Add(ctx context.Context, documentID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(documentID)
	if s.sets[documentID] == nil {
		s.sets[documentID] = make(map[string]bool)
	}
	s.sets[documentID][username] = true
	s.expires[documentID] = s.now().Add(s.ttl)
	return nil
}

// Remove takes username out of the document's member set.
func (s *MemoryStore) Remove(ctx context.Context, documentID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(documentID)
	if members, ok := s.sets[documentID]; ok {
		delete(members, username)
		if len(members) == 0 {
			delete(s.sets, documentID)
			delete(s.expires, documentID)
		}
	}
	return nil
}

// Members returns the current member set for the document.
func (s *MemoryStore) Members(ctx context.Context, documentID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(documentID)
	members := s.sets[documentID]
	if len(members) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(members))
	for m := range members {
		out = append(out, m)
	}
	return out, nil
}

// Refresh extends the TTL on the document's member set.
func (s *MemoryStore) Refresh(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(documentID)
	if _, ok := s.sets[documentID]; ok {
		s.expires[documentID] = s.now().Add(s.ttl)
	}
	return nil
}
