// Package password provides one-way credential hashing and verification.
package password

import (
	"golang.org/x/crypto/bcrypt"

	"storefront-insights-core/internal/ports"
)

// Hasher implements PasswordHasher with bcrypt.
type Hasher struct{}

// NewHasher creates a bcrypt-backed hasher.
func NewHasher() ports.PasswordHasher {
	return Hasher{}
}

// Hash derives a salted, adaptive one-way digest of plaintext. The salt is
// embedded in the digest, so the same plaintext yields a different digest
// on every call.
func (Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext re-hashes to digest. The comparison is
// constant-time. Malformed digests never panic or error out; they simply
// fail verification.
func (Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
