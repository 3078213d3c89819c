package security

import "golang.org/x/crypto/bcrypt"

// Hasher wraps bcrypt password hashing with a fixed cost. Plaintext
// passwords must never be logged or stored.
type Hasher struct {
	Cost int
}

// NewHasher clamps cost into bcrypt's valid range; zero or negative picks
// the bcrypt default.
func NewHasher(cost int) *Hasher {
	switch {
	case cost <= 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash returns the bcrypt hash of password, ready for storage.
func (h *Hasher) Hash(password []byte) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare reports whether password matches the stored hash; a mismatch
// surfaces as bcrypt.ErrMismatchedHashAndPassword.
func (h *Hasher) Compare(hash string, password []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), password)
}
