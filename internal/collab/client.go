package collab

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // whole-document edits; allow up to 1MB
	sendBuffer     = 64
)

// Client binds one WebSocket connection to its service-side Conn. It owns
// the read and write pumps; all outbound traffic goes through the buffered
// send channel so broadcasts never block on a slow socket.
type Client struct {
	ws      *websocket.Conn
	service *Service
	conn    *Conn
	send    chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient wraps an upgraded WebSocket connection. The caller must call
// Run to start the pumps.
func NewClient(ws *websocket.Conn, service *Service) *Client {
	return &Client{
		ws:      ws,
		service: service,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
	}
}

// Send queues an encoded event for delivery. A client whose buffer is full
// is closed: a reader that far behind is not coming back.
func (c *Client) Send(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	case <-c.done:
		return false
	default:
		log.Printf("collab: closing slow client %s", c.conn.ID())
		c.close()
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// Run attaches the identity, starts the write pump, and reads until the
// connection drops. It returns after the disconnect transition has run.
func (c *Client) Run(ctx context.Context, conn *Conn) {
	c.conn = conn
	go c.writePump()
	c.readPump(ctx)
	c.close()
	c.service.Disconnect(ctx, conn)
}

func (c *Client) readPump(ctx context.Context) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("collab: read error from %s: %v", c.conn.ID(), err)
			}
			return
		}
		c.dispatch(ctx, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// dispatch decodes one inbound frame and runs the matching transition.
// Service errors become error events on this connection only; nothing here
// ever tears the connection down.
func (c *Client) dispatch(ctx context.Context, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.conn.send(EventError, ErrorEvent{Message: "malformed message"})
		return
	}

	switch env.Event {
	case EventJoinDocument:
		var p JoinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.DocumentID == "" {
			c.conn.send(EventError, ErrorEvent{Message: "malformed message"})
			return
		}
		if err := c.service.Join(ctx, c.conn, p.DocumentID); err != nil {
			c.conn.send(EventError, ErrorEvent{Message: joinErrorMessage(err)})
		}
	case EventEdit:
		var p EditPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			c.conn.send(EventError, ErrorEvent{Message: "malformed message"})
			return
		}
		if err := c.service.Edit(ctx, c.conn, p); err != nil {
			if errors.Is(err, ErrMissingContent) {
				c.conn.send(EventError, ErrorEvent{Message: "malformed message"})
				return
			}
			c.conn.send(EventError, ErrorEvent{Message: "Document not found"})
		}
	case EventCursor:
		var p CursorPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		// Cursor moves on a non-joined document are dropped silently.
		_ = c.service.Cursor(ctx, c.conn, p)
	case EventLeaveDocument:
		var p JoinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		_ = c.service.Leave(ctx, c.conn, p.DocumentID)
	default:
		c.conn.send(EventError, ErrorEvent{Message: "unknown event"})
	}
}

func joinErrorMessage(err error) string {
	if errors.Is(err, ErrAccessDenied) {
		return "Access denied"
	}
	return "Failed to join document"
}
