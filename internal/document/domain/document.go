package domain

import (
	"errors"
	"time"
)

// Document is a shared text document. Content here is the durably stored
// text; the live text of an open editing session is owned by the
// collaboration service until it persists it back.
type Document struct {
	ID            string
	Title         string
	Content       string
	OwnerID       string
	OwnerUsername string // joined from users; empty when not loaded
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Permission is the access level granted on a shared document.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

// Valid reports whether p is a known permission level.
func (p Permission) Valid() bool {
	return p == PermissionRead || p == PermissionWrite
}

// Validate validates the document for persistence.
func (d *Document) Validate() error {
	if d.Title == "" || len(d.Title) > 255 {
		return errors.New("title must be between 1 and 255 characters")
	}
	if d.OwnerID == "" {
		return errors.New("owner is required")
	}
	return nil
}
