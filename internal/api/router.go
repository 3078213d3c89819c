package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/ratelimit"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/security"
)

// PublicRegistrar mounts routes that need no token.
type PublicRegistrar interface {
	RegisterPublic(r *mux.Router)
}

// ProtectedRegistrar mounts routes behind the auth middleware.
type ProtectedRegistrar interface {
	RegisterProtected(r *mux.Router)
}

// NewRouter assembles the HTTP API: /health unauthenticated, /api/* rate
// limited, protected routes behind Bearer auth. limiter may be nil to
// disable limiting; health may be nil to skip the route.
func NewRouter(tokens *security.TokenProvider, limiter *ratelimit.Limiter, health http.Handler, public []PublicRegistrar, protected []ProtectedRegistrar) *mux.Router {
	r := mux.NewRouter()
	if health != nil {
		r.Handle("/health", health).Methods(http.MethodGet)
	}

	open := r.PathPrefix("/api").Subrouter()
	open.Use(RateLimit(limiter))
	for _, p := range public {
		p.RegisterPublic(open)
	}

	authed := r.PathPrefix("/api").Subrouter()
	authed.Use(RateLimit(limiter), Auth(tokens))
	for _, p := range protected {
		p.RegisterProtected(authed)
	}
	return r
}
