package application

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// pkceEncoding is URL-safe base64 with padding stripped, as required for
// the PKCE verifier and its derived challenge.
var pkceEncoding = base64.URLEncoding.WithPadding(base64.NoPadding)

// generateState produces a high-entropy CSRF state value.
func generateState() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return pkceEncoding.EncodeToString(raw), nil
}

// generateCodeVerifier produces a high-entropy PKCE verifier.
func generateCodeVerifier() (string, error) {
	raw := make([]byte, 40)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate code verifier: %w", err)
	}
	return pkceEncoding.EncodeToString(raw), nil
}

// codeChallengeS256 derives the S256 challenge for a verifier.
func codeChallengeS256(verifier string) string {
	digest := sha256.Sum256([]byte(verifier))
	return pkceEncoding.EncodeToString(digest[:])
}
