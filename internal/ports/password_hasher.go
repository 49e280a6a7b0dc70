package ports

// PasswordHasher provides one-way credential hashing and constant-time
// verification.
type PasswordHasher interface {
	// Hash derives a salted one-way digest; the same plaintext yields a
	// different digest on every call.
	Hash(plaintext string) (string, error)

	// Verify reports whether plaintext re-hashes to digest. Malformed
	// digests fail verification, never error.
	Verify(plaintext, digest string) bool
}
