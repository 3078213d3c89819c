package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/security"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/user/domain"
)

// Sentinel errors for the user service; the handler maps them to HTTP status
// codes.
var (
	ErrAlreadyRegistered  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	// ErrInvalidInput wraps field validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

const searchLimit = 10

// UserRepo is the minimal user repository needed by the service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error)
	Search(ctx context.Context, q string, limit int) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

// AuthResult is the outcome of a successful Login: a signed token plus the
// authenticated user.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Service implements registration, password login, and user lookup.
type Service struct {
	repo   UserRepo
	hasher *security.Hasher
	tokens *security.TokenProvider
}

// New returns a Service with the given dependencies.
func New(repo UserRepo, hasher *security.Hasher, tokens *security.TokenProvider) *Service {
	return &Service{repo: repo, hasher: hasher, tokens: tokens}
}

// Register creates a user with the given email, username, and password.
// Email and username must both be unused.
func (s *Service) Register(ctx context.Context, email, username, password string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}

	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks the password for the user with the given email and issues a
// token. Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(security.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Get returns the user for id. Returns ErrUserNotFound if no such user.
func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Search returns up to ten users matching q by email or username.
func (s *Service) Search(ctx context.Context, q string) ([]*domain.User, error) {
	return s.repo.Search(ctx, q, searchLimit)
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	return nil
}
