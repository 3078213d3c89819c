package collab

import (
	"log"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/security"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // same-origin policy is enforced upstream by the gateway
	},
}

// Handler is the WebSocket endpoint. The handshake carries an opaque token
// (query parameter or bearer header); verification failure refuses the
// connection before the upgrade, with no session side effects.
type Handler struct {
	tokens  *security.TokenProvider
	service *Service

	connections int64
	draining    int32
}

// NewHandler returns the endpoint handler for the given verifier and service.
func NewHandler(tokens *security.TokenProvider, service *Service) *Handler {
	return &Handler{tokens: tokens, service: service}
}

// ConnectionCount returns the number of currently open connections.
func (h *Handler) ConnectionCount() int64 {
	return atomic.LoadInt64(&h.connections)
}

// StopAccepting makes the handler refuse new connections; part of the
// cooperative drain at shutdown.
func (h *Handler) StopAccepting() {
	atomic.StoreInt32(&h.draining, 1)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if atomic.LoadInt32(&h.draining) != 0 {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	identity, err := h.tokens.Verify(tokenFromRequest(r))
	if err != nil {
		http.Error(w, "authentication error", http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("collab: upgrade: %v", err)
		return
	}

	atomic.AddInt64(&h.connections, 1)
	defer atomic.AddInt64(&h.connections, -1)

	client := NewClient(ws, h.service)
	conn := h.service.Connect(*identity, client)
	log.Printf("collab: user connected: %s (%s)", identity.Username, conn.ID())
	client.Run(r.Context(), conn)
	log.Printf("collab: user disconnected: %s (%s)", identity.Username, conn.ID())
}

func tokenFromRequest(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	auth := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}
