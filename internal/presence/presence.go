// Package presence tracks which users are editing which documents, visible
// across all service instances through a shared TTL'd set store.
package presence

import "context"

// Store records document membership with per-key expiry. Entries vanish when
// their TTL lapses without a refresh, so a crashed instance's users age out
// on their own.
type Store interface {
	// Add puts username in the document's member set and refreshes the TTL.
	Add(ctx context.Context, documentID, username string) error
	// Remove takes username out of the document's member set.
	Remove(ctx context.Context, documentID, username string) error
	// Members returns the current member set for the document.
	Members(ctx context.Context, documentID string) ([]string, error)
	// Refresh extends the TTL on the document's member set.
	Refresh(ctx context.Context, documentID string) error
}
