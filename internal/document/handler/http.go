// Package handler exposes document CRUD and sharing over HTTP. All routes
// require an authenticated identity in context.
package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/api"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/document/domain"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/document/service"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/security"
)

// Handler serves the document routes.
type Handler struct {
	svc *service.Service
}

// New returns a Handler backed by the given service.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterProtected mounts the document routes on r. The router must already
// run auth middleware.
func (h *Handler) RegisterProtected(r *mux.Router) {
	r.HandleFunc("/documents", h.create).Methods(http.MethodPost)
	r.HandleFunc("/documents", h.list).Methods(http.MethodGet)
	r.HandleFunc("/documents/{id}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/documents/{id}", h.update).Methods(http.MethodPut)
	r.HandleFunc("/documents/{id}", h.delete).Methods(http.MethodDelete)
	r.HandleFunc("/documents/{id}/share", h.share).Methods(http.MethodPost)
}

type documentView struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	OwnerID       string    `json:"owner_id"`
	OwnerUsername string    `json:"owner_username,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func viewDocument(d *domain.Document) documentView {
	return documentView{
		ID:            d.ID,
		Title:         d.Title,
		Content:       d.Content,
		OwnerID:       d.OwnerID,
		OwnerUsername: d.OwnerUsername,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func identity(w http.ResponseWriter, r *http.Request) (security.Identity, bool) {
	id, ok := api.IdentityFrom(r.Context())
	if !ok {
		api.RespondError(w, http.StatusUnauthorized, "missing or invalid authorization")
	}
	return id, ok
}

type createRequest struct {
	Title string `json:"title"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Title) < 1 || len(req.Title) > 255 {
		api.RespondError(w, http.StatusBadRequest, "title must be between 1 and 255 characters")
		return
	}
	doc, err := h.svc.Create(r.Context(), req.Title, id.UserID, id.Username)
	if err != nil {
		h.respondServiceError(w, "create", err)
		return
	}
	api.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Document created",
		"document": viewDocument(doc),
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	docs, err := h.svc.List(r.Context(), id.UserID)
	if err != nil {
		h.respondServiceError(w, "list", err)
		return
	}
	views := make([]documentView, 0, len(docs))
	for _, d := range docs {
		views = append(views, viewDocument(d))
	}
	api.RespondJSON(w, http.StatusOK, map[string]interface{}{"documents": views})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	doc, err := h.svc.Get(r.Context(), mux.Vars(r)["id"], id.UserID)
	if err != nil {
		h.respondServiceError(w, "get", err)
		return
	}
	api.RespondJSON(w, http.StatusOK, map[string]interface{}{"document": viewDocument(doc)})
}

type updateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	doc, err := h.svc.Update(r.Context(), mux.Vars(r)["id"], id.UserID, req.Title, req.Content)
	if err != nil {
		h.respondServiceError(w, "update", err)
		return
	}
	api.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Document updated",
		"document": viewDocument(doc),
	})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), mux.Vars(r)["id"], id.UserID); err != nil {
		h.respondServiceError(w, "delete", err)
		return
	}
	api.RespondJSON(w, http.StatusOK, map[string]string{"message": "Document deleted"})
}

type shareRequest struct {
	UserEmail  string `json:"userEmail"`
	Permission string `json:"permission"`
}

func (h *Handler) share(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req shareRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	perm := domain.Permission(req.Permission)
	if !perm.Valid() {
		api.RespondError(w, http.StatusBadRequest, "permission must be read or write")
		return
	}
	if err := h.svc.Share(r.Context(), mux.Vars(r)["id"], id.UserID, req.UserEmail, perm); err != nil {
		h.respondServiceError(w, "share", err)
		return
	}
	api.RespondJSON(w, http.StatusOK, map[string]string{"message": "Document shared successfully"})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		api.RespondError(w, http.StatusNotFound, "Document not found")
	case errors.Is(err, service.ErrNotOwner):
		api.RespondError(w, http.StatusForbidden, "Unauthorized")
	case errors.Is(err, service.ErrShareeUnknown):
		api.RespondError(w, http.StatusNotFound, "User not found")
	default:
		log.Printf("document handler: %s: %v", op, err)
		api.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}
