package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HMACSHA256 is a keyed hash for opaque tokens (refresh tokens, challenge
// tokens) so a leaked database cannot be replayed against the API.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 returns an HMAC-SHA256 hasher with the given secret.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

// Hash returns the hex-encoded HMAC of plaintext.
func (s *HMACSHA256) Hash(plaintext string) ([]byte, error) {
	return s.sum(plaintext), nil
}

// Verify compares in constant time.
func (s *HMACSHA256) Verify(hashed, plaintext string) bool {
	return subtle.ConstantTimeCompare([]byte(hashed), s.sum(plaintext)) == 1
}

func (s *HMACSHA256) sum(plaintext string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(plaintext))
	mac := h.Sum(nil)

	out := make([]byte, hex.EncodedLen(len(mac)))
	hex.Encode(out, mac)
	return out
}
