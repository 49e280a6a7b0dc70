package ports

import (
	"context"
	"time"
)

// StateStore is a key-expiring store holding short-lived handshake state
// (CSRF token, PKCE verifier) during an external OAuth round trip. It is
// best-effort and never the source of truth for anything durable.
type StateStore interface {
	// Put stores value at key, overwriting any existing value. The entry
	// becomes unavailable after ttl.
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value and true, or "" and false when the key was
	// never set or has expired.
	Get(ctx context.Context, key string) (string, bool, error)

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
