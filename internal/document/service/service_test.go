package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/document/domain"
	userdomain "github.com/7shantanu7/CodeSync-CMPE-281/internal/user/domain"
)

type memDocRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Document
	grants map[string]domain.Permission // "docID/userID"
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{byID: map[string]*domain.Document{}, grants: map[string]domain.Permission{}}
}

func (r *memDocRepo) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memDocRepo) ListForUser(ctx context.Context, userID string) ([]*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Document
	for id, d := range r.byID {
		if d.OwnerID == userID {
			out = append(out, d)
			continue
		}
		if _, ok := r.grants[id+"/"+userID]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDocRepo) Create(ctx context.Context, d *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[d.ID] = d
	return nil
}

func (r *memDocRepo) Update(ctx context.Context, id string, title, content *string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if title != nil {
		d.Title = *title
	}
	if content != nil {
		d.Content = *content
	}
	d.UpdatedAt = time.Now().UTC()
	return d, nil
}

func (r *memDocRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memDocRepo) Share(ctx context.Context, documentID, userID string, perm domain.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants[documentID+"/"+userID] = perm
	return nil
}

func (r *memDocRepo) CanAccess(ctx context.Context, documentID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.byID[documentID]; ok && d.OwnerID == userID {
		return true, nil
	}
	_, ok := r.grants[documentID+"/"+userID]
	return ok, nil
}

type memShareeRepo struct {
	byEmail map[string]*userdomain.User
}

func (r *memShareeRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	return r.byEmail[email], nil
}

func newTestService() (*Service, *memDocRepo, *memShareeRepo) {
	docs := newMemDocRepo()
	users := &memShareeRepo{byEmail: map[string]*userdomain.User{
		"bob@example.com": {ID: "u-bob", Email: "bob@example.com", Username: "bob"},
	}}
	return New(docs, users), docs, users
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	doc, err := svc.Create(ctx, "Design notes", "u-alice", "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if doc.ID == "" || doc.Content != "" {
		t.Errorf("created doc = %+v, want assigned ID and empty content", doc)
	}

	got, err := svc.Get(ctx, doc.ID, "u-alice")
	if err != nil {
		t.Fatalf("Get as owner: %v", err)
	}
	if got.Title != "Design notes" {
		t.Errorf("title = %q", got.Title)
	}

	// A stranger sees not-found, not forbidden.
	if _, err := svc.Get(ctx, doc.ID, "u-stranger"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get as stranger err = %v, want ErrNotFound", err)
	}
}

func TestCreate_InvalidTitle(t *testing.T) {
	svc, docs, _ := newTestService()
	if _, err := svc.Create(context.Background(), "", "u-alice", "alice"); err == nil {
		t.Fatal("empty title accepted")
	}
	if len(docs.byID) != 0 {
		t.Error("invalid document persisted")
	}
}

func TestUpdate_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	doc, err := svc.Create(ctx, "t", "u-alice", "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	content := "updated body"
	updated, err := svc.Update(ctx, doc.ID, "u-alice", nil, &content)
	if err != nil {
		t.Fatalf("Update as owner: %v", err)
	}
	if updated.Content != "updated body" || updated.Title != "t" {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := svc.Update(ctx, doc.ID, "u-bob", nil, &content); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Update as non-owner err = %v, want ErrNotOwner", err)
	}
	if _, err := svc.Update(ctx, "missing", "u-alice", nil, &content); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update of missing doc err = %v, want ErrNotFound", err)
	}
}

func TestDelete_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	svc, docs, _ := newTestService()
	doc, err := svc.Create(ctx, "t", "u-alice", "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, doc.ID, "u-bob"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Delete as non-owner err = %v, want ErrNotOwner", err)
	}
	if err := svc.Delete(ctx, doc.ID, "u-alice"); err != nil {
		t.Fatalf("Delete as owner: %v", err)
	}
	if len(docs.byID) != 0 {
		t.Error("document not deleted")
	}
}

func TestShare(t *testing.T) {
	ctx := context.Background()
	svc, docs, _ := newTestService()
	doc, err := svc.Create(ctx, "t", "u-alice", "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Share(ctx, doc.ID, "u-alice", "bob@example.com", domain.PermissionWrite); err != nil {
		t.Fatalf("Share: %v", err)
	}
	ok, err := docs.CanAccess(ctx, doc.ID, "u-bob")
	if err != nil || !ok {
		t.Errorf("sharee access = (%v, %v), want granted", ok, err)
	}

	if err := svc.Share(ctx, doc.ID, "u-bob", "bob@example.com", domain.PermissionRead); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Share by non-owner err = %v, want ErrNotOwner", err)
	}
	if err := svc.Share(ctx, doc.ID, "u-alice", "nobody@example.com", domain.PermissionRead); !errors.Is(err, ErrShareeUnknown) {
		t.Errorf("Share with unknown user err = %v, want ErrShareeUnknown", err)
	}
	if err := svc.Share(ctx, doc.ID, "u-alice", "bob@example.com", domain.Permission("admin")); err == nil {
		t.Error("invalid permission accepted")
	}
}
