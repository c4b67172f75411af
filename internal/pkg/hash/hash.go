// Package hash provides the secret-hashing implementations used by the
// service: bcrypt for passwords, argon2id as an alternative KDF, and
// HMAC-SHA256 for tokens stored at rest.
package hash

// Hash hashes and verifies a secret. Implementations embed their parameters
// in the output so Verify never needs external configuration.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}
