// Package handler exposes registration, login, and user lookup over HTTP.
package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/api"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/security"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/user/domain"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/user/service"
)

// Handler serves the auth and user routes.
type Handler struct {
	svc    *service.Service
	tokens *security.TokenProvider
}

// New returns a Handler backed by the given service and token provider.
func New(svc *service.Service, tokens *security.TokenProvider) *Handler {
	return &Handler{svc: svc, tokens: tokens}
}

// RegisterPublic mounts the routes that require no token.
func (h *Handler) RegisterPublic(r *mux.Router) {
	r.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/verify", h.verify).Methods(http.MethodGet)
}

// RegisterProtected mounts the routes behind auth middleware.
func (h *Handler) RegisterProtected(r *mux.Router) {
	r.HandleFunc("/users/me", h.me).Methods(http.MethodGet)
	r.HandleFunc("/users/search", h.search).Methods(http.MethodGet)
}

// userView is the client-visible shape of a user. The password hash never
// leaves the service.
type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func viewUser(u *domain.User) userView {
	return userView{ID: u.ID, Email: u.Email, Username: u.Username, CreatedAt: u.CreatedAt}
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.svc.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyRegistered) {
			api.RespondError(w, http.StatusBadRequest, "User already exists")
			return
		}
		if errors.Is(err, service.ErrInvalidInput) {
			api.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.fail(w, "register", err)
		return
	}
	api.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User created successfully",
		"user":    viewUser(user),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			api.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.fail(w, "login", err)
		return
	}
	api.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"token":   res.Token,
		"user":    viewUser(res.User),
	})
}

// verify checks the presented token without touching storage, so clients can
// validate a cached token cheaply.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
		api.RespondError(w, http.StatusUnauthorized, "No token provided")
		return
	}
	id, err := h.tokens.Verify(auth[len(prefix):])
	if err != nil {
		api.RespondError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	api.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"valid": true,
		"user": map[string]string{
			"id":       id.UserID,
			"email":    id.Email,
			"username": id.Username,
		},
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id, ok := api.IdentityFrom(r.Context())
	if !ok {
		api.RespondError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	user, err := h.svc.Get(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			api.RespondError(w, http.StatusNotFound, "User not found")
			return
		}
		h.fail(w, "me", err)
		return
	}
	api.RespondJSON(w, http.StatusOK, map[string]interface{}{"user": viewUser(user)})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		api.RespondError(w, http.StatusBadRequest, "Query parameter required")
		return
	}
	users, err := h.svc.Search(r.Context(), q)
	if err != nil {
		h.fail(w, "search", err)
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, viewUser(u))
	}
	api.RespondJSON(w, http.StatusOK, map[string]interface{}{"users": views})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	log.Printf("user handler: %s: %v", op, err)
	api.RespondError(w, http.StatusInternalServerError, "internal error")
}
