// Package auth issues and verifies the bearer tokens that carry a
// caller's identity and role. Tokens are HS256-signed JWTs; everything
// else about the caller is resolved from the users table at login time
// and embedded in the claims.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"intercept/internal/models"
)

// Identity is the verified caller of a request: who they are and what
// role they hold. Mutating operations receive it explicitly rather than
// reading it from ambient state.
type Identity struct {
	ID   uuid.UUID
	Name string
	Role models.Role
}

// IsAdmin reports whether the identity holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// Claims are the JWT claims embedded in issued tokens.
type Claims struct {
	Name string      `json:"name"`
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Service signs and verifies tokens with a shared secret.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// New creates a token service with the given signing secret and lifetime.
func New(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl}
}

// Token issues a signed token for the given user.
func (s *Service) Token(u *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: u.Name,
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks a token's signature and expiry and returns the identity
// it carries.
func (s *Service) Verify(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		// Reject anything but HMAC so a forged token cannot downgrade
		// the signing algorithm.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid token subject: %w", err)
	}

	return &Identity{ID: id, Name: claims.Name, Role: claims.Role}, nil
}
