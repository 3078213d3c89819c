package repository

import (
	"context"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error)
	// Search matches email or username case-insensitively, capped at limit rows.
	Search(ctx context.Context, q string, limit int) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}
