package collab

import (
	"context"
	"sync"
	"time"
)

// Session is one document's live editing state on this instance. Content and
// version are authoritative only here; other instances run their own
// counters (the version is a local sequence, not a global one).
type Session struct {
	mu           sync.Mutex
	documentID   string
	content      string
	version      int64
	participants map[string]bool // usernames joined on this instance
	lastActivity time.Time
	history      *editHistory
}

func newSession(documentID, content string, historyLimit int) *Session {
	return &Session{
		documentID:   documentID,
		content:      content,
		participants: make(map[string]bool),
		lastActivity: time.Now(),
		history:      newEditHistory(historyLimit),
	}
}

// DocumentID returns the document this session belongs to.
func (s *Session) DocumentID() string { return s.documentID }

// AddParticipant records username as joined and touches lastActivity.
func (s *Session) AddParticipant(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[username] = true
	s.lastActivity = time.Now()
}

// RemoveParticipant removes username and reports whether the session became
// empty by this removal. The caller persists and discards the session on the
// empty transition; the bool is true at most once per transition because
// removal of an absent username does not count.
func (s *Session) RemoveParticipant(username string) (becameEmpty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.participants[username] {
		return false
	}
	delete(s.participants, username)
	return len(s.participants) == 0
}

// Snapshot returns the current content, version, and participant list.
func (s *Session) Snapshot() DocumentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]string, 0, len(s.participants))
	for u := range s.participants {
		users = append(users, u)
	}
	return DocumentState{Content: s.content, Version: s.version, Users: users}
}

// ApplyEdit accepts a local edit: bumps the version, replaces content
// (whole-document, no merge), touches lastActivity, and records the edit in
// the bounded history. Returns the new version. The caller validates that
// content actually accompanied the edit; what is applied here is exactly
// what gets published to other instances.
func (s *Session) ApplyEdit(username string, newContent string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.content = newContent
	s.lastActivity = time.Now()
	s.history.add(EditRecord{
		Username: username,
		Content:  s.content,
		Version:  s.version,
		At:       time.Now(),
	})
	return s.version
}

// ApplyRemote applies an edit mirrored from another instance: content is
// replaced and the local version advances, independent of the remote
// instance's own counter.
func (s *Session) ApplyRemote(content string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.content = content
	s.lastActivity = time.Now()
	return s.version
}

// Content returns the current document text.
func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

// Version returns the current local version counter.
func (s *Session) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// ParticipantCount returns how many usernames are joined on this instance.
func (s *Session) ParticipantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participants)
}

// LastActivity returns the time of the most recent join or edit.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// History returns the recent edits, oldest first.
func (s *Session) History() []EditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.records()
}

// Registry owns every open Session on this instance. It is created by the
// service root and passed by reference, so tests can run several registries
// in one process.
type Registry struct {
	mu           sync.Mutex
	sessions     map[string]*Session
	creating     map[string]chan struct{}
	historyLimit int
}

// NewRegistry returns an empty Registry. historyLimit caps each session's
// recent-edit ring.
func NewRegistry(historyLimit int) *Registry {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &Registry{
		sessions:     make(map[string]*Session),
		creating:     make(map[string]chan struct{}),
		historyLimit: historyLimit,
	}
}

// GetOrCreate returns the session for documentID, creating it with content
// from load on first use. Concurrent calls for the same documentID are
// serialized: only one runs load, the rest wait for it, so two divergent
// sessions can never be created for one document.
func (r *Registry) GetOrCreate(ctx context.Context, documentID string, load func(ctx context.Context) (string, error)) (*Session, error) {
	for {
		r.mu.Lock()
		if s, ok := r.sessions[documentID]; ok {
			r.mu.Unlock()
			return s, nil
		}
		if ch, ok := r.creating[documentID]; ok {
			r.mu.Unlock()
			select {
			case <-ch:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		ch := make(chan struct{})
		r.creating[documentID] = ch
		r.mu.Unlock()

		content, err := load(ctx)

		r.mu.Lock()
		delete(r.creating, documentID)
		close(ch)
		if err != nil {
			r.mu.Unlock()
			return nil, err
		}
		s := newSession(documentID, content, r.historyLimit)
		r.sessions[documentID] = s
		r.mu.Unlock()
		return s, nil
	}
}

// Get returns the session for documentID, or nil if none is open.
func (r *Registry) Get(documentID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[documentID]
}

// Remove discards the session for documentID.
func (r *Registry) Remove(documentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, documentID)
}

// All returns every open session.
func (r *Registry) All() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
