package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/document/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a document repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const docColumns = "d.id, d.title, d.content, d.owner_id, u.username, d.created_at, d.updated_at"

// GetByID returns the document for id with its owner's username, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+docColumns+" FROM documents d JOIN users u ON d.owner_id = u.id WHERE d.id = $1", id)
	return scanDocument(row)
}

// ListForUser returns documents the user owns or has a grant on, newest first.
func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]*domain.Document, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+docColumns+`
		 FROM documents d
		 JOIN users u ON d.owner_id = u.id
		 WHERE d.owner_id = $1
		 OR d.id IN (SELECT document_id FROM document_permissions WHERE user_id = $1)
		 ORDER BY d.updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.OwnerID, &d.OwnerUsername, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// Create persists the document. The document must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, d *domain.Document) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO documents (id, title, content, owner_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)",
		d.ID, d.Title, d.Content, d.OwnerID, d.CreatedAt, d.UpdatedAt)
	return err
}

// Update applies non-nil fields and bumps updated_at. Returns ErrNotFound if no row matched.
func (r *PostgresRepository) Update(ctx context.Context, id string, title, content *string) (*domain.Document, error) {
	sets := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	n := 1
	if title != nil {
		sets = append(sets, "title = $"+strconv.Itoa(n))
		args = append(args, *title)
		n++
	}
	if content != nil {
		sets = append(sets, "content = $"+strconv.Itoa(n))
		args = append(args, *content)
		n++
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := "UPDATE documents SET " + strings.Join(sets, ", ") +
		" WHERE id = $" + strconv.Itoa(n) +
		" RETURNING id, title, content, owner_id, '', created_at, updated_at"
	row := r.db.QueryRowContext(ctx, query, args...)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

// Delete removes the document; permission rows cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Share grants permission on the document to the user, upserting any prior grant.
func (r *PostgresRepository) Share(ctx context.Context, documentID, userID string, perm domain.Permission) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO document_permissions (document_id, user_id, permission)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (document_id, user_id)
		 DO UPDATE SET permission = $3`,
		documentID, userID, string(perm))
	return err
}

// CanAccess reports whether the user owns the document or holds a grant on it.
func (r *PostgresRepository) CanAccess(ctx context.Context, documentID, userID string) (bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM documents d
		 WHERE d.id = $1 AND (
		   d.owner_id = $2 OR
		   d.id IN (SELECT document_id FROM document_permissions WHERE user_id = $2)
		 )`, documentID, userID)
	var one int
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// LoadContent reads the stored text for a document. Returns ErrNotFound if the document does not exist.
func (r *PostgresRepository) LoadContent(ctx context.Context, documentID string) (string, error) {
	var content string
	err := r.db.QueryRowContext(ctx, "SELECT content FROM documents WHERE id = $1", documentID).Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return content, nil
}

// SaveContent overwrites the stored text unconditionally (last writer wins).
func (r *PostgresRepository) SaveContent(ctx context.Context, documentID, content string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE documents SET content = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2",
		content, documentID)
	return err
}

func scanDocument(row *sql.Row) (*domain.Document, error) {
	var d domain.Document
	err := row.Scan(&d.ID, &d.Title, &d.Content, &d.OwnerID, &d.OwnerUsername, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}
