// Package auth extracts the authenticated caller principal from
// incoming requests. Identity is the host's responsibility: this
// package only validates the JWT the host issued and hands the subject
// to the engine as an opaque principal string.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey struct{}

// WithPrincipal returns a context carrying the caller principal.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, contextKey{}, principal)
}

// PrincipalFrom extracts the caller principal from the context.
func PrincipalFrom(ctx context.Context) (string, bool) {
	p, ok := ctx.Value(contextKey{}).(string)
	return p, ok && p != ""
}

// Claims are the JWT claims expected on ledger requests. The subject
// is the caller principal.
type Claims struct {
	jwt.RegisteredClaims
}

// Validator validates HMAC-signed bearer tokens.
type Validator struct {
	secret []byte
}

// NewValidator creates a validator for the shared secret. Returns nil
// for an empty secret; callers treat a nil validator as
// authentication disabled (development mode).
func NewValidator(secret string) *Validator {
	if secret == "" {
		return nil
	}
	return &Validator{secret: []byte(secret)}
}

// Validate parses the token and returns the caller principal.
func (v *Validator) Validate(tokenStr string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid token")
	}
	return claims.Subject, nil
}

// Sign issues a token for a principal. Used by tests and the demo
// binary; production tokens come from the host's identity service.
func (v *Validator) Sign(principal string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
