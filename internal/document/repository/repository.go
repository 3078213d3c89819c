package repository

import (
	"context"
	"errors"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/document/domain"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Repository defines persistence for documents and their permission grants.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	// ListForUser returns documents the user owns or has a grant on, newest first.
	ListForUser(ctx context.Context, userID string) ([]*domain.Document, error)
	Create(ctx context.Context, d *domain.Document) error
	// Update applies non-nil fields. Returns ErrNotFound if the document does not exist.
	Update(ctx context.Context, id string, title, content *string) (*domain.Document, error)
	Delete(ctx context.Context, id string) error
	// Share grants permission on the document to the user, upserting any prior grant.
	Share(ctx context.Context, documentID, userID string, perm domain.Permission) error
	// CanAccess reports whether the user owns the document or holds a grant on it.
	CanAccess(ctx context.Context, documentID, userID string) (bool, error)

	// LoadContent reads the stored text for a document. Returns ErrNotFound
	// if the document does not exist.
	LoadContent(ctx context.Context, documentID string) (string, error)
	// SaveContent overwrites the stored text unconditionally (last writer wins).
	SaveContent(ctx context.Context, documentID, content string) error
}

// ContentStore is the narrow slice of Repository the collaboration service
// needs: the access check plus whole-document load and save.
type ContentStore interface {
	CanAccess(ctx context.Context, documentID, userID string) (bool, error)
	LoadContent(ctx context.Context, documentID string) (string, error)
	SaveContent(ctx context.Context, documentID, content string) error
}
