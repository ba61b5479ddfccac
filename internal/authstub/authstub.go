// Package authstub stands in for the external user-authentication
// collaborator the session engine depends on but does not own. It issues
// and validates signed bearer tokens carrying a user id and role, exactly
// enough for the transport layer to resolve "which student is this
// request" before handing off to sessionapi. Anything beyond that —
// password storage, account provisioning, single-device session locks —
// is someone else's system.
package authstub

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role distinguishes a student bearer from an admin bearer.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

var (
	ErrInvalidToken = errors.New("authstub: invalid or expired token")
)

// Claims extends the registered JWT claims with the fields the rest of the
// module needs.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
}

// Issuer signs and validates bearer tokens with a single shared secret.
type Issuer struct {
	secret []byte
	expiry time.Duration
}

func New(secret string, expiry time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), expiry: expiry}
}

// Issue mints a signed token for userID with the given role.
func (i *Issuer) Issue(userID uuid.UUID, role Role) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
		},
		UserID: userID,
		Role:   role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate parses a bearer token and returns its claims.
func (i *Issuer) Validate(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
