package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/document/domain"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/document/repository"
	userdomain "github.com/7shantanu7/CodeSync-CMPE-281/internal/user/domain"
)

// Sentinel errors for the document service; the handler maps them to HTTP
// status codes.
var (
	ErrNotFound      = repository.ErrNotFound
	ErrNotOwner      = errors.New("not the document owner")
	ErrShareeUnknown = errors.New("user to share with not found")
)

// DocumentRepo is the repository surface the service needs.
type DocumentRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListForUser(ctx context.Context, userID string) ([]*domain.Document, error)
	Create(ctx context.Context, d *domain.Document) error
	Update(ctx context.Context, id string, title, content *string) (*domain.Document, error)
	Delete(ctx context.Context, id string) error
	Share(ctx context.Context, documentID, userID string, perm domain.Permission) error
	CanAccess(ctx context.Context, documentID, userID string) (bool, error)
}

// UserRepo is the minimal user lookup needed to resolve share targets.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// Service implements document CRUD and sharing with owner/grant
// authorization.
type Service struct {
	docs  DocumentRepo
	users UserRepo
}

// New returns a Service with the given dependencies.
func New(docs DocumentRepo, users UserRepo) *Service {
	return &Service{docs: docs, users: users}
}

// Create persists a new empty document owned by ownerID.
func (s *Service) Create(ctx context.Context, title, ownerID, ownerUsername string) (*domain.Document, error) {
	now := time.Now().UTC()
	doc := &domain.Document{
		ID:            uuid.New().String(),
		Title:         title,
		Content:       "",
		OwnerID:       ownerID,
		OwnerUsername: ownerUsername,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// List returns documents userID owns or has a grant on, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*domain.Document, error) {
	return s.docs.ListForUser(ctx, userID)
}

// Get returns the document if userID may access it. An existing document the
// user cannot see reads as ErrNotFound, so its existence is not leaked.
func (s *Service) Get(ctx context.Context, id, userID string) (*domain.Document, error) {
	ok, err := s.docs.CanAccess(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

// Update applies the non-nil fields. Only the owner may update through the
// API; collaborators write through the live session instead.
func (s *Service) Update(ctx context.Context, id, userID string, title, content *string) (*domain.Document, error) {
	if err := s.requireOwner(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.docs.Update(ctx, id, title, content)
}

// Delete removes the document. Owner only.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if err := s.requireOwner(ctx, id, userID); err != nil {
		return err
	}
	return s.docs.Delete(ctx, id)
}

// Share grants perm on the document to the user with shareeEmail, upserting
// any prior grant. Owner only.
func (s *Service) Share(ctx context.Context, id, ownerID, shareeEmail string, perm domain.Permission) error {
	if !perm.Valid() {
		return errors.New("permission must be read or write")
	}
	if err := s.requireOwner(ctx, id, ownerID); err != nil {
		return err
	}
	sharee, err := s.users.GetByEmail(ctx, shareeEmail)
	if err != nil {
		return err
	}
	if sharee == nil {
		return ErrShareeUnknown
	}
	return s.docs.Share(ctx, id, sharee.ID, perm)
}

func (s *Service) requireOwner(ctx context.Context, id, userID string) error {
	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNotFound
	}
	if doc.OwnerID != userID {
		return ErrNotOwner
	}
	return nil
}
