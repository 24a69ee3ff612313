// Package auth validates bearer tokens and exposes the caller's identity
// to handlers. A token must resolve subject id, role, phone and display
// name; anything less is rejected.
package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/TegaJeremy/Take-Am-Platform/internal/domain"
)

const (
	RoleTrader = "TRADER"
	RoleAgent  = "AGENT"
	RoleAdmin  = "ADMIN"
)

// Identity is the authenticated caller as seen by the domain layer.
type Identity struct {
	ID    string
	Role  string
	Phone string
	Name  string
}

type Claims struct {
	Role  string `json:"role"`
	Phone string `json:"phoneNumber"`
	Name  string `json:"fullName"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for the given identity. Used by tests and local
// tooling; production tokens come from the user service with the same
// shape.
func IssueToken(secret string, ident Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:  ident.Role,
		Phone: ident.Phone,
		Name:  ident.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates the signature and expiry and extracts the identity.
func ParseToken(secret, token string) (Identity, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.Auth("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, domain.Auth("invalid or expired token")
	}

	ident := Identity{
		ID:    strings.TrimSpace(claims.Subject),
		Role:  strings.TrimSpace(claims.Role),
		Phone: strings.TrimSpace(claims.Phone),
		Name:  strings.TrimSpace(claims.Name),
	}
	if ident.ID == "" || ident.Role == "" {
		return Identity{}, domain.Auth("token is missing required claims")
	}
	return ident, nil
}
