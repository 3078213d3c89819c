package domain

import (
	"errors"
	"strings"
	"time"
)

// User is the core user entity.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string // bcrypt; never serialized to clients
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return errors.New("valid email is required")
	}
	if len(u.Username) < 3 || len(u.Username) > 100 {
		return errors.New("username must be between 3 and 100 characters")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}
