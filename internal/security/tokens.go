package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired, or signed incorrectly.
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the verified subject of a token: the user attached to a
// connection or API request. Immutable once attached.
type Identity struct {
	UserID   string
	Username string
	Email    string
}

// Claims holds the JWT claims shared by the API and collaboration services.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// TokenProvider issues and verifies HS256 JWTs using a secret shared between
// the API service (issuer) and the collaboration service (verifier).
type TokenProvider struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewTokenProvider returns a TokenProvider signing with the given secret.
// issuer and audience are set on issued claims and checked on verification.
func NewTokenProvider(secret, issuer, audience string, ttl time.Duration) (*TokenProvider, error) {
	if secret == "" {
		return nil, errors.New("security: token secret must not be empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenProvider{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
	}, nil
}

// Issue issues a token for the given identity. Returns the signed token and
// its expiration time.
func (p *TokenProvider) Issue(id Identity) (token string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	expiresAt = now.Add(p.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: id.Username,
		Email:    id.Email,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(p.secret)
	return token, expiresAt, err
}

// Verify parses and validates the token (signature, exp, iss, aud) and
// returns the identity it carries. Returns ErrInvalidToken on any failure.
func (p *TokenProvider) Verify(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	audOk := false
	for _, a := range claims.Audience {
		if a == p.audience {
			audOk = true
			break
		}
	}
	if !audOk {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{UserID: claims.Subject, Username: claims.Username, Email: claims.Email}, nil
}
