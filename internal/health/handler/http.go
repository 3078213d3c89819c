// Package handler serves readiness for load balancers and orchestration
// probes.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/api"
)

const pingTimeout = 2 * time.Second

// Pinger reports backend reachability, satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler answers GET /health. A nil pinger is skipped, so the collab server
// can run it without a database handle.
type Handler struct {
	service string
	db      Pinger
	stats   func() map[string]interface{}
}

// New returns a Handler reporting for service. stats may be nil; when set its
// values are merged into the response (e.g. live connection counts).
func New(service string, db Pinger, stats func() map[string]interface{}) *Handler {
	return &Handler{service: service, db: db, stats: stats}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":    "ok",
		"service":   h.service,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			body["status"] = "degraded"
			body["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	if h.stats != nil {
		for k, v := range h.stats() {
			body[k] = v
		}
	}
	api.RespondJSON(w, status, body)
}
