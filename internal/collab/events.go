package collab

import "encoding/json"

// Client-to-server event names.
const (
	EventJoinDocument  = "join-document"
	EventEdit          = "edit"
	EventCursor        = "cursor"
	EventLeaveDocument = "leave-document"
)

// Server-to-client event names.
const (
	EventDocumentState = "document-state"
	EventUserJoined    = "user-joined"
	EventUserLeft      = "user-left"
	EventError         = "error"
)

// Envelope frames every message on the wire in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Changes carries the edit delta. The protocol is whole-document replacement:
// Content, when present, becomes the new document text.
type Changes struct {
	Content *string `json:"content,omitempty"`
}

// JoinPayload is the body of join-document and leave-document.
type JoinPayload struct {
	DocumentID string `json:"documentId"`
}

// EditPayload is the body of a client edit.
type EditPayload struct {
	DocumentID string          `json:"documentId"`
	Changes    Changes         `json:"changes"`
	Cursor     json.RawMessage `json:"cursor,omitempty"`
}

// CursorPayload is the body of a client cursor move.
type CursorPayload struct {
	DocumentID string          `json:"documentId"`
	Position   json.RawMessage `json:"position,omitempty"`
}

// DocumentState is sent to a joining client: the full current snapshot.
type DocumentState struct {
	Content string   `json:"content"`
	Version int64    `json:"version"`
	Users   []string `json:"users"`
}

// UserEvent announces a join or leave to the rest of the room.
type UserEvent struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
}

// EditEvent is broadcast to room members other than the editor.
type EditEvent struct {
	UserID   string          `json:"userId"`
	Username string          `json:"username"`
	Changes  Changes         `json:"changes"`
	Cursor   json.RawMessage `json:"cursor,omitempty"`
	Version  int64           `json:"version"`
}

// CursorEvent is broadcast to room members other than the mover.
type CursorEvent struct {
	UserID   string          `json:"userId"`
	Username string          `json:"username"`
	Position json.RawMessage `json:"position,omitempty"`
}

// ErrorEvent reports a failure to the offending client only.
type ErrorEvent struct {
	Message string `json:"message"`
}

// encodeEvent frames data in an Envelope and marshals it.
func encodeEvent(event string, data interface{}) ([]byte, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: body})
}
