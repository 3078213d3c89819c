// Package collab implements the collaborative session core: the per-instance
// session registry, room broadcast, presence tracking, cross-instance
// fan-out, and write-back persistence for shared text documents.
//
// Consistency model: content and version are per-instance. The fan-out bus
// mirrors edits between instances but never arbitrates conflicts; durable
// storage is last writer wins.
package collab

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/document/repository"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/fanout"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/presence"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/security"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/telemetry/producer"
)

// Sentinel errors for the collaboration service; the transport maps them to
// protocol error events.
var (
	// ErrAccessDenied: valid identity, no grant on the document.
	ErrAccessDenied = errors.New("access denied")
	// ErrNotJoined: the connection referenced a document it has not joined.
	ErrNotJoined = errors.New("document not joined")
	// ErrMissingContent: an edit arrived without changes.content. Accepting
	// it locally while publishing a flattened empty string would diverge
	// instances, so the edit is refused outright.
	ErrMissingContent = errors.New("edit missing content")
)

// Service drives every connection's join/edit/cursor/leave transitions and
// owns the instance's sessions through the Registry. All mutation of one
// session is serialized by that session's lock; the registry's creation
// guard keeps concurrent joins of one document from racing the storage load.
type Service struct {
	instanceID string
	registry   *Registry
	hub        *Hub
	store      repository.ContentStore
	presence   presence.Store
	bus        fanout.Bus
	activity   producer.Producer

	editsAccepted metric.Int64Counter
	remoteApplied metric.Int64Counter
	fanoutDropped metric.Int64Counter
}

// New builds a Service. instanceID marks outbound bus messages so other
// instances (and this one) can tell their origin; it must differ between
// instances sharing a bus. activity may be nil.
func New(instanceID string, registry *Registry, hub *Hub, store repository.ContentStore, pres presence.Store, bus fanout.Bus, activity producer.Producer) *Service {
	meter := otel.Meter("collab")
	editsAccepted, _ := meter.Int64Counter("collab_edits_accepted_total",
		metric.WithDescription("Edits accepted from local connections"))
	remoteApplied, _ := meter.Int64Counter("collab_remote_edits_applied_total",
		metric.WithDescription("Edits mirrored in from other instances"))
	fanoutDropped, _ := meter.Int64Counter("collab_fanout_publish_failures_total",
		metric.WithDescription("Bus publishes that failed and degraded to local-only delivery"))
	sessionsGauge, _ := meter.Int64ObservableGauge("collab_open_sessions",
		metric.WithDescription("Sessions currently open on this instance"))

	s := &Service{
		instanceID:    instanceID,
		registry:      registry,
		hub:           hub,
		store:         store,
		presence:      pres,
		bus:           bus,
		activity:      activity,
		editsAccepted: editsAccepted,
		remoteApplied: remoteApplied,
		fanoutDropped: fanoutDropped,
	}
	_, _ = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(sessionsGauge, int64(registry.Len()))
		return nil
	}, sessionsGauge)
	return s
}

// Connect creates connection state for a verified identity. The transport
// calls this once per accepted connection.
func (s *Service) Connect(identity security.Identity, out Sender) *Conn {
	return NewConn(identity, out)
}

// Start subscribes the service to the fan-out bus. Call once before serving
// connections.
func (s *Service) Start(ctx context.Context) error {
	return s.bus.Subscribe(ctx, s.handleRemote)
}

// Join runs the join transition: authorize, create or reuse the session,
// register presence, reply with the full snapshot, and announce the join to
// the rest of the room. A connection already joined elsewhere leaves that
// document first.
func (s *Service) Join(ctx context.Context, c *Conn, documentID string) error {
	ok, err := s.store.CanAccess(ctx, documentID, c.identity.UserID)
	if err != nil {
		return fmt.Errorf("access check: %w", err)
	}
	if !ok {
		return ErrAccessDenied
	}

	if prev := c.ActiveDocument(); prev != "" && prev != documentID {
		s.Leave(ctx, c, prev)
	}

	sess, err := s.registry.GetOrCreate(ctx, documentID, func(ctx context.Context) (string, error) {
		return s.store.LoadContent(ctx, documentID)
	})
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	sess.AddParticipant(c.identity.Username)
	c.setActiveDocument(documentID)
	s.hub.Add(documentID, c)

	// Presence is best effort: a dead store degrades to local-only visibility.
	if err := s.presence.Add(ctx, documentID, c.identity.Username); err != nil {
		log.Printf("collab: presence add %s/%s: %v", documentID, c.identity.Username, err)
	}

	// The snapshot's user list spans instances: local participants merged
	// with the shared presence set. A dead presence store degrades to the
	// local view.
	state := sess.Snapshot()
	if members, err := s.presence.Members(ctx, documentID); err != nil {
		log.Printf("collab: presence members %s: %v", documentID, err)
	} else {
		state.Users = mergeUsers(state.Users, members)
	}
	c.send(EventDocumentState, state)
	s.hub.Broadcast(documentID, c.id, EventUserJoined, UserEvent{
		Username: c.identity.Username,
		UserID:   c.identity.UserID,
	})
	s.emitActivity(ctx, producer.TypeUserJoined, documentID, c.identity, sess.Version())
	return nil
}

// Edit runs the edit transition: the connection must be joined to
// documentID. The session's version advances, content is replaced
// (whole-document, no merge), the room hears about it, and the bus carries
// it to other instances.
func (s *Service) Edit(ctx context.Context, c *Conn, p EditPayload) error {
	if c.ActiveDocument() != p.DocumentID {
		return ErrNotJoined
	}
	sess := s.registry.Get(p.DocumentID)
	if sess == nil {
		return ErrNotJoined
	}
	if p.Changes.Content == nil {
		return ErrMissingContent
	}

	content := *p.Changes.Content
	version := sess.ApplyEdit(c.identity.Username, content)
	s.editsAccepted.Add(ctx, 1, metric.WithAttributes(attribute.String("document", p.DocumentID)))

	if err := s.presence.Refresh(ctx, p.DocumentID); err != nil {
		log.Printf("collab: presence refresh %s: %v", p.DocumentID, err)
	}

	s.hub.Broadcast(p.DocumentID, c.id, EventEdit, EditEvent{
		UserID:   c.identity.UserID,
		Username: c.identity.Username,
		Changes:  p.Changes,
		Cursor:   p.Cursor,
		Version:  version,
	})

	if err := s.bus.Publish(ctx, fanout.EditMessage{
		Kind:       fanout.KindEdit,
		DocumentID: p.DocumentID,
		UserID:     c.identity.UserID,
		Username:   c.identity.Username,
		Content:    content,
		Cursor:     p.Cursor,
		Version:    version,
		Origin:     s.instanceID,
	}); err != nil {
		// Cross-instance mirroring is best effort; local delivery already happened.
		s.fanoutDropped.Add(ctx, 1)
		log.Printf("collab: fanout publish %s: %v", p.DocumentID, err)
	}
	return nil
}

// Cursor broadcasts a cursor move to the room (and, best effort, to other
// instances). No session state changes.
func (s *Service) Cursor(ctx context.Context, c *Conn, p CursorPayload) error {
	if c.ActiveDocument() != p.DocumentID {
		return ErrNotJoined
	}
	s.hub.Broadcast(p.DocumentID, c.id, EventCursor, CursorEvent{
		UserID:   c.identity.UserID,
		Username: c.identity.Username,
		Position: p.Position,
	})
	if err := s.bus.Publish(ctx, fanout.EditMessage{
		Kind:       fanout.KindCursor,
		DocumentID: p.DocumentID,
		UserID:     c.identity.UserID,
		Username:   c.identity.Username,
		Position:   p.Position,
		Origin:     s.instanceID,
	}); err != nil {
		log.Printf("collab: fanout cursor publish %s: %v", p.DocumentID, err)
	}
	return nil
}

// Leave runs the leave transition: drop the connection from the room, clear
// presence, tell the others, and persist-and-discard the session when its
// last local participant is gone.
func (s *Service) Leave(ctx context.Context, c *Conn, documentID string) error {
	if c.ActiveDocument() != documentID {
		return ErrNotJoined
	}
	s.hub.Remove(documentID, c)
	c.setActiveDocument("")

	sess := s.registry.Get(documentID)
	if sess == nil {
		return nil
	}
	becameEmpty := sess.RemoveParticipant(c.identity.Username)

	if err := s.presence.Remove(ctx, documentID, c.identity.Username); err != nil {
		log.Printf("collab: presence remove %s/%s: %v", documentID, c.identity.Username, err)
	}

	s.hub.Broadcast(documentID, c.id, EventUserLeft, UserEvent{
		Username: c.identity.Username,
		UserID:   c.identity.UserID,
	})
	s.emitActivity(ctx, producer.TypeUserLeft, documentID, c.identity, sess.Version())

	if becameEmpty {
		s.persistAndDiscard(ctx, sess)
	}
	return nil
}

// Disconnect behaves exactly like Leave on the connection's last joined
// document. The transport calls it when the underlying connection closes,
// with or without a prior explicit leave.
func (s *Service) Disconnect(ctx context.Context, c *Conn) {
	if documentID := c.ActiveDocument(); documentID != "" {
		_ = s.Leave(ctx, c, documentID)
	}
}

// persistAndDiscard is the persistence trigger: write the in-memory content
// over durable storage (last writer wins, no merge) and drop the session.
// A failed write is logged; the session is discarded regardless, matching
// the documented weak-consistency contract.
func (s *Service) persistAndDiscard(ctx context.Context, sess *Session) {
	documentID := sess.DocumentID()
	if err := s.store.SaveContent(ctx, documentID, sess.Content()); err != nil {
		log.Printf("collab: persist %s: %v", documentID, err)
	} else {
		s.emitActivity(ctx, producer.TypeDocumentPersisted, documentID, security.Identity{}, sess.Version())
	}
	s.registry.Remove(documentID)
}

// handleRemote is the inbound half of the broadcast router: edits published
// by other instances are applied to the local session (content replacement,
// local version advance) and rebroadcast to local participants. Messages for
// documents with no local session are discarded.
func (s *Service) handleRemote(msg fanout.EditMessage) {
	if msg.Origin == s.instanceID {
		return
	}
	sess := s.registry.Get(msg.DocumentID)
	if sess == nil {
		return
	}
	ctx := context.Background()
	switch msg.Kind {
	case fanout.KindEdit:
		version := sess.ApplyRemote(msg.Content)
		s.remoteApplied.Add(ctx, 1, metric.WithAttributes(attribute.String("document", msg.DocumentID)))
		content := msg.Content
		s.hub.Broadcast(msg.DocumentID, "", EventEdit, EditEvent{
			UserID:   msg.UserID,
			Username: msg.Username,
			Changes:  Changes{Content: &content},
			Cursor:   msg.Cursor,
			Version:  version,
		})
	case fanout.KindCursor:
		s.hub.Broadcast(msg.DocumentID, "", EventCursor, CursorEvent{
			UserID:   msg.UserID,
			Username: msg.Username,
			Position: msg.Position,
		})
	}
}

// SweepIdle persists and discards sessions that have been empty of
// participants and inactive for longer than idleFor. Run periodically as a
// safety net for sessions leaked by abnormal disconnects.
func (s *Service) SweepIdle(ctx context.Context, idleFor time.Duration) {
	cutoff := time.Now().Add(-idleFor)
	for _, sess := range s.registry.All() {
		if sess.ParticipantCount() == 0 && sess.LastActivity().Before(cutoff) {
			log.Printf("collab: sweeping idle session %s", sess.DocumentID())
			s.persistAndDiscard(ctx, sess)
		}
	}
}

// RunIdleSweep runs SweepIdle every interval until ctx is done. No-op when
// idleFor is zero.
func (s *Service) RunIdleSweep(ctx context.Context, interval, idleFor time.Duration) {
	if idleFor <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepIdle(ctx, idleFor)
		}
	}
}

// Shutdown flushes every open session to durable storage. Failures are
// logged per document and do not stop the loop. Call after the transport has
// stopped accepting connections.
func (s *Service) Shutdown(ctx context.Context) {
	for _, sess := range s.registry.All() {
		documentID := sess.DocumentID()
		if err := s.store.SaveContent(ctx, documentID, sess.Content()); err != nil {
			log.Printf("collab: shutdown persist %s: %v", documentID, err)
			continue
		}
		s.registry.Remove(documentID)
	}
}

// mergeUsers unions two username lists, keeping local order first and
// dropping duplicates.
func mergeUsers(local, remote []string) []string {
	seen := make(map[string]bool, len(local)+len(remote))
	out := make([]string, 0, len(local)+len(remote))
	for _, u := range local {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	for _, u := range remote {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

func (s *Service) emitActivity(ctx context.Context, eventType, documentID string, id security.Identity, version int64) {
	if s.activity == nil {
		return
	}
	producer.EmitAsync(s.activity, producer.ActivityEvent{
		Type:       eventType,
		DocumentID: documentID,
		UserID:     id.UserID,
		Username:   id.Username,
		Version:    version,
		Instance:   s.instanceID,
		At:         time.Now().UTC(),
	})
}
