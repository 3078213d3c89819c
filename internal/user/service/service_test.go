package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/security"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/user/domain"
)

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email], nil
}

func (r *memUserRepo) GetByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byEmail[email]; ok {
		return u, nil
	}
	for _, u := range r.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Search(ctx context.Context, q string, limit int) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q = strings.ToLower(q)
	var out []*domain.User
	for _, u := range r.byID {
		if len(out) == limit {
			break
		}
		if strings.Contains(strings.ToLower(u.Email), q) || strings.Contains(strings.ToLower(u.Username), q) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = u
	r.byEmail[u.Email] = u
	return nil
}

func newTestService(t *testing.T) (*Service, *memUserRepo) {
	t.Helper()
	tokens, err := security.NewTokenProvider("test-secret", "codesync-api", "codesync", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenProvider: %v", err)
	}
	repo := newMemUserRepo()
	return New(repo, security.NewHasher(4), tokens), repo // bcrypt MinCost keeps tests fast
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	user, err := svc.Register(ctx, "Alice@Example.com", "alice", "correct horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want normalized lowercase", user.Email)
	}
	if user.PasswordHash == "" || user.PasswordHash == "correct horse" {
		t.Error("password not hashed")
	}

	res, err := svc.Login(ctx, "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token == "" || res.User.ID != user.ID {
		t.Errorf("login result = %+v, want token for %s", res, user.ID)
	}
	if !res.ExpiresAt.After(time.Now()) {
		t.Error("token already expired")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if _, err := svc.Register(ctx, "a@example.com", "alice", "long enough"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	cases := []struct {
		name, email, username string
	}{
		{"same email", "a@example.com", "alice2"},
		{"same username", "a2@example.com", "alice"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.email, tc.username, "long enough")
			if !errors.Is(err, ErrAlreadyRegistered) {
				t.Errorf("err = %v, want ErrAlreadyRegistered", err)
			}
		})
	}
}

func TestRegister_WeakPassword(t *testing.T) {
	svc, repo := newTestService(t)
	if _, err := svc.Register(context.Background(), "a@example.com", "alice", "short"); err == nil {
		t.Fatal("short password accepted")
	}
	if len(repo.byID) != 0 {
		t.Error("rejected registration persisted a user")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	if _, err := svc.Register(ctx, "a@example.com", "alice", "long enough"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	cases := []struct {
		name, email, password string
	}{
		{"unknown email", "nobody@example.com", "long enough"},
		{"wrong password", "a@example.com", "not the password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tc.email, tc.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), "missing")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	for _, u := range []struct{ email, username string }{
		{"alice@example.com", "alice"},
		{"bob@example.com", "bob"},
	} {
		if _, err := svc.Register(ctx, u.email, u.username, "long enough"); err != nil {
			t.Fatalf("Register %s: %v", u.username, err)
		}
	}

	got, err := svc.Search(ctx, "ali")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Username != "alice" {
		t.Errorf("search ali = %v, want [alice]", got)
	}
}
