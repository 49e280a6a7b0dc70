package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HandshakeTTL is the window during which an in-flight authorization
// handshake remains completable. After it elapses the ephemeral entries are
// unusable regardless of store presence.
const HandshakeTTL = 600 * time.Second

// HandshakePayload is the opaque state token round-tripped through the third
// party during an authorization handshake. It binds the CSRF value to the
// owner and shop so the callback can be correlated without server-side
// session affinity.
type HandshakePayload struct {
	State   string    `json:"state"`
	OwnerID uuid.UUID `json:"owner_id"`
	Shop    string    `json:"shop"`
}

// Encode serializes the payload into a URL-safe transportable token.
func (p HandshakePayload) Encode() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode handshake payload: %w", err)
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

// DecodeHandshakePayload parses an opaque state token produced by Encode.
// Any malformed input is rejected; callers map this to KindInvalidState.
func DecodeHandshakePayload(encoded string) (HandshakePayload, error) {
	var payload HandshakePayload
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return payload, fmt.Errorf("failed to decode state token: %w", err)
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, fmt.Errorf("failed to parse state token: %w", err)
	}
	if payload.State == "" || payload.OwnerID == uuid.Nil || payload.Shop == "" {
		return payload, fmt.Errorf("state token is missing required fields")
	}
	return payload, nil
}

// StateKey is the ephemeral-store key holding the CSRF state for one
// in-flight handshake slot.
func StateKey(ownerID uuid.UUID, shop string) string {
	return fmt.Sprintf("shopify_state:%s:%s", ownerID, shop)
}

// VerifierKey is the ephemeral-store key holding the PKCE verifier for one
// in-flight handshake slot.
func VerifierKey(ownerID uuid.UUID, shop string) string {
	return fmt.Sprintf("shopify_verifier:%s:%s", ownerID, shop)
}
