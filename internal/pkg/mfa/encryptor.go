// Package mfa encrypts MFA secrets (TOTP seeds) at rest.
package mfa

// Purpose identifies the MFA encryption purpose.
type Purpose string

// PurposeOTPSeed scopes encryption to authenticator app seeds.
const PurposeOTPSeed Purpose = "otp_seed"

// Scope binds encryption to MFA-specific identifiers.
// It is used as AAD (Additional Authenticated Data) in AES-GCM, so a
// ciphertext can only be opened with the same account and purpose.
type Scope struct {
	// AccountID is the owning account identifier.
	AccountID int64
	// Purpose is the encryption purpose.
	Purpose Purpose
}

// Encryptor defines the interface for encrypting/decrypting MFA material.
type Encryptor interface {
	// Encrypt returns ciphertext for the given plaintext and scope.
	Encrypt(plaintext []byte, scope Scope) (ciphertext []byte, err error)
	// Decrypt returns plaintext for the given ciphertext and scope.
	Decrypt(ciphertext []byte, scope Scope) (plaintext []byte, err error)
}

// KeyProvider provides raw AES keys.
// For AES-256-GCM, keys must be 32 bytes.
type KeyProvider interface {
	// Key returns the raw AES key to use for this scope. Implementations may
	// return per-tenant keys, per-environment keys, etc.
	Key(scope Scope) ([]byte, error)
}
