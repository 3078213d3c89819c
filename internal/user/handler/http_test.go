package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/api"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/security"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/user/domain"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/user/service"
)

type memUserRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*domain.User{}}
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetByEmailOrUsername(ctx context.Context, email, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email || u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Search(ctx context.Context, q string, limit int) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.byID {
		if len(out) == limit {
			break
		}
		if strings.Contains(u.Email, q) || strings.Contains(u.Username, q) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = u
	return nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	tokens, err := security.NewTokenProvider("test-secret", "codesync-api", "codesync", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenProvider: %v", err)
	}
	svc := service.New(newMemUserRepo(), security.NewHasher(4), tokens)
	h := New(svc, tokens)
	return api.NewRouter(tokens, nil, nil, []api.PublicRegistrar{h}, []api.ProtectedRegistrar{h})
}

func doJSON(t *testing.T, router http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	out := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return rec, out
}

func register(t *testing.T, router http.Handler, email, username string) {
	t.Helper()
	rec, _ := doJSON(t, router, http.MethodPost, "/api/auth/register", "",
		`{"email":"`+email+`","username":"`+username+`","password":"long enough"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s status = %d body = %s", username, rec.Code, rec.Body.String())
	}
}

func login(t *testing.T, router http.Handler, email string) string {
	t.Helper()
	rec, body := doJSON(t, router, http.MethodPost, "/api/auth/login", "",
		`{"email":"`+email+`","password":"long enough"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d body = %s", rec.Code, rec.Body.String())
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("login response missing token")
	}
	return token
}

func TestRegisterLoginMe(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "alice@example.com", "alice")
	token := login(t, router, "alice@example.com")

	rec, body := doJSON(t, router, http.MethodGet, "/api/users/me", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d body = %s", rec.Code, rec.Body.String())
	}
	user, _ := body["user"].(map[string]interface{})
	if user["username"] != "alice" || user["email"] != "alice@example.com" {
		t.Errorf("me user = %v", user)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Error("password hash leaked to client")
	}
}

func TestRegister_Errors(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "alice@example.com", "alice")

	cases := []struct {
		name string
		body string
		want int
	}{
		{"duplicate email", `{"email":"alice@example.com","username":"alice2","password":"long enough"}`, http.StatusBadRequest},
		{"short password", `{"email":"b@example.com","username":"bob","password":"short"}`, http.StatusBadRequest},
		{"malformed body", `{"email":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := doJSON(t, router, http.MethodPost, "/api/auth/register", "", tc.body)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "alice@example.com", "alice")

	rec, _ := doJSON(t, router, http.MethodPost, "/api/auth/login", "",
		`{"email":"alice@example.com","password":"wrong password"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestVerify(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "alice@example.com", "alice")
	token := login(t, router, "alice@example.com")

	rec, body := doJSON(t, router, http.MethodGet, "/api/auth/verify", token, "")
	if rec.Code != http.StatusOK || body["valid"] != true {
		t.Errorf("verify status = %d body = %v", rec.Code, body)
	}

	rec, _ = doJSON(t, router, http.MethodGet, "/api/auth/verify", "bogus", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("verify bogus token status = %d, want 401", rec.Code)
	}
}

func TestMe_RequiresAuth(t *testing.T) {
	router := newTestRouter(t)
	rec, _ := doJSON(t, router, http.MethodGet, "/api/users/me", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestSearch(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "alice@example.com", "alice")
	register(t, router, "bob@example.com", "bob")
	token := login(t, router, "alice@example.com")

	rec, body := doJSON(t, router, http.MethodGet, "/api/users/search?q=bob", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d", rec.Code)
	}
	users, _ := body["users"].([]interface{})
	if len(users) != 1 {
		t.Fatalf("search returned %d users, want 1", len(users))
	}

	rec, _ = doJSON(t, router, http.MethodGet, "/api/users/search", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("search without q status = %d, want 400", rec.Code)
	}
}
