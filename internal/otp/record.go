package otp

import (
	"context"
	"time"
)

// Status is the outcome of an issue or verify call. Statuses are values,
// not errors; a non-nil error from the same call always means an
// infrastructure fault.
type Status int

const (
	// StatusOK means the code was issued or verified.
	StatusOK Status = iota
	// StatusRateLimited means the identifier is inside a lockout or has
	// exhausted its request window. No code was generated.
	StatusRateLimited
	// StatusDeliveryFailed means the code was stored but the channel did not
	// accept it. The code stays valid.
	StatusDeliveryFailed
	// StatusNotFound means no record matches the identifier and code.
	StatusNotFound
	// StatusAlreadyUsed means the matching code was consumed or superseded.
	StatusAlreadyUsed
	// StatusExpired means the matching code's TTL has passed.
	StatusExpired
	// StatusTooManyAttempts means this failure locked the outstanding record.
	StatusTooManyAttempts
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusRateLimited:
		return "RATE_LIMITED"
	case StatusDeliveryFailed:
		return "DELIVERY_FAILED"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusAlreadyUsed:
		return "ALREADY_USED"
	case StatusExpired:
		return "EXPIRED"
	case StatusTooManyAttempts:
		return "TOO_MANY_ATTEMPTS"
	default:
		return "UNKNOWN"
	}
}

// Record is one issued code. Records are never deleted; a record is dead
// once Used is set or ExpiresAt has passed. Expiry is always derived from
// ExpiresAt, never written.
type Record struct {
	ID         int64
	Identifier Identifier
	Code       string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	// Used is set on successful consumption, on supersession by a newer
	// code, or on attempt-cap lockout.
	Used bool
	// Attempts counts failed verifications against this record. Only the
	// attempt-capped variant reads it.
	Attempts int
	// AccountID is the account the identifier resolved to at issuance time,
	// or zero when none existed yet (verify-before-create flows).
	AccountID int64
}

// Live reports whether the record can still be verified at the given time.
func (r Record) Live(now time.Time) bool {
	return !r.Used && now.Before(r.ExpiresAt)
}

// RateLimit is the per-identifier request ledger. RequestCount only counts
// requests inside [WindowStart, WindowStart+window); once that interval
// elapses the row is re-initialized, so an identifier is never punished
// beyond one full lockout period.
type RateLimit struct {
	Identifier   Identifier
	RequestCount int
	WindowStart  time.Time
	// BlockedUntil is the lockout deadline, zero when not locked out.
	BlockedUntil time.Time
}

// Store persists issued codes. Lookups that match nothing return
// goerror.ErrNotFound.
type Store interface {
	// CreateSuperseding marks every live record for rec.Identifier as used
	// and inserts rec, atomically, so at most one code is ever valid per
	// identifier.
	CreateSuperseding(ctx context.Context, rec Record) error
	// FindLive returns the newest unused, unexpired record matching the
	// identifier and exact code string.
	FindLive(ctx context.Context, id Identifier, code string, now time.Time) (Record, error)
	// FindLatestByCode returns the newest record matching the identifier and
	// code regardless of state, for diagnostics.
	FindLatestByCode(ctx context.Context, id Identifier, code string) (Record, error)
	// FindLatestLive returns the newest unused, unexpired record for the
	// identifier, whatever its code.
	FindLatestLive(ctx context.Context, id Identifier, now time.Time) (Record, error)
	// Consume marks the record used if and only if it is still unused, and
	// reports whether this call won the consumption.
	Consume(ctx context.Context, recordID int64) (bool, error)
	// RecordFailure increments the record's attempt count and, when lock is
	// set, also marks it used.
	RecordFailure(ctx context.Context, recordID int64, lock bool) error
}

// LimitStore persists rate-limit rows. Get returns goerror.ErrNotFound for
// identifiers that never requested a code.
type LimitStore interface {
	Get(ctx context.Context, id Identifier) (RateLimit, error)
	// Save upserts the row for rl.Identifier.
	Save(ctx context.Context, rl RateLimit) error
}

// AccountLookup resolves an identifier to its current account, returning
// goerror.ErrNotFound when no account exists yet.
type AccountLookup interface {
	FindByIdentifier(ctx context.Context, id Identifier) (int64, error)
}

// DeliveryChannel hands a rendered message to the user. An error means the
// channel did not accept it; the stored code stays valid either way.
type DeliveryChannel interface {
	Send(ctx context.Context, id Identifier, message string) error
}
