package entity

import (
	"time"

	"github.com/aruna-labs/identra/internal/pkg/valueobject"
)

// RefreshSession is an opaque refresh token at rest. Token holds the
// HMAC-SHA256 of the value handed to the client; the plaintext is never
// stored.
type RefreshSession struct {
	ID           int64
	UserID       int64
	Token        string
	ExpiresAt    time.Time
	Revoked      bool
	ReplacedByID int64
	Metadata     valueobject.JSONMap
}

// SessionUser joins a refresh session with its owning user for rotation
// decisions.
type SessionUser struct {
	SessionID    int64
	Token        string
	Revoked      bool
	ReplacedByID int64
	ExpiresAt    time.Time
	UserID       int64
	UserEmail    string
	UserPhone    string
	UserStatus   UserStatus
}

// RotateSession atomically revokes the old session and records its
// replacement.
type RotateSession struct {
	OldID        int64
	NewID        int64
	UserID       int64
	NewToken     string
	NewExpiresAt time.Time
}

// LoginChallenge bridges a successful password check to a pending second
// factor. Token is HMAC-hashed at rest like refresh sessions.
type LoginChallenge struct {
	ID        int64
	UserID    int64
	Token     string
	Purpose   ChallengePurpose
	ExpiresAt time.Time
}

// ChallengeUser joins a login challenge with its user.
type ChallengeUser struct {
	ChallengeID int64
	Purpose     ChallengePurpose
	ExpiresAt   time.Time
	UserID      int64
	UserEmail   string
	UserPhone   string
	UserStatus  UserStatus
}

// TOTPFactor is an authenticator-app second factor. Secret is AES-GCM
// encrypted at rest, scoped to the owning account.
type TOTPFactor struct {
	ID         int64
	UserID     int64
	Secret     []byte
	KeyVersion int16
	Confirmed  bool
}
