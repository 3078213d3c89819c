// Package api carries the HTTP surface: router assembly, authentication and
// rate-limit middleware, and shared response helpers.
package api

import (
	"context"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/security"
)

type contextKey struct{ name string }

var identityKey = contextKey{"identity"}

// WithIdentity returns a context carrying the authenticated identity.
// Handlers read it back via IdentityFrom.
func WithIdentity(ctx context.Context, id security.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity from context and true if set.
func IdentityFrom(ctx context.Context) (security.Identity, bool) {
	id, ok := ctx.Value(identityKey).(security.Identity)
	return id, ok
}
