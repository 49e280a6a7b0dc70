package domain

import (
	"context"

	"github.com/google/uuid"
)

// SessionClaims is the authenticated identity carried by a verified session
// token. Verification is claims-only: no user row is fetched.
type SessionClaims struct {
	UserID uuid.UUID
	Email  string
}

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const sessionContextKey contextKey = "session_claims"

// WithSession attaches verified session claims to the context.
func WithSession(ctx context.Context, claims SessionClaims) context.Context {
	return context.WithValue(ctx, sessionContextKey, claims)
}

// SessionFromContext extracts the session claims set by the guard middleware.
func SessionFromContext(ctx context.Context) (SessionClaims, bool) {
	claims, ok := ctx.Value(sessionContextKey).(SessionClaims)
	return claims, ok
}
