package otp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aruna-labs/identra/internal/pkg/clock"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
	"github.com/aruna-labs/identra/internal/pkg/uid"
)

const (
	// DefaultCodeLength is the number of digits in an issued code.
	DefaultCodeLength = 6
	// DefaultTTL is the code lifetime for the general flows. The
	// credential-change variant uses a longer one.
	DefaultTTL = 5 * time.Minute
)

// Config parameterizes a Service instance. The general flows (login,
// registration, password reset) and the credential-change flow are the same
// design with different values here, never duplicated code.
type Config struct {
	// CodeLength is the fixed code width; defaults to 6.
	CodeLength int
	// TTL is the code lifetime; defaults to 5 minutes.
	TTL time.Duration
	// MaxVerifyAttempts caps failed verifications per record. Zero disables
	// the cap, leaving only the identifier-wide limiter.
	MaxVerifyAttempts int
}

// Dependency carries the collaborators a Service needs.
type Dependency struct {
	Store    Store
	Limiter  *RateLimiter
	Accounts AccountLookup
	Channel  DeliveryChannel
	Clock    clock.Clocker
	UID      uid.NumberID
}

// IssueResult is the outcome of Issue: StatusOK, StatusRateLimited or
// StatusDeliveryFailed.
type IssueResult struct {
	Status Status
	// ExpiresAt is set for issued codes, including delivery failures.
	ExpiresAt time.Time
}

// VerifyResult is the outcome of Verify.
type VerifyResult struct {
	Status Status
	// AccountID is the account captured at issuance, zero when the
	// identifier had no account yet. Only meaningful for StatusOK.
	AccountID int64
}

// Service issues single-use numeric codes bound to an identifier and
// validates them exactly once.
type Service struct {
	cfg Config
	dep Dependency
}

// NewService builds a Service. Zero config fields fall back to defaults;
// MaxVerifyAttempts stays zero unless set.
func NewService(cfg Config, dep Dependency) *Service {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = DefaultCodeLength
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Service{cfg: cfg, dep: dep}
}

// TTL reports the configured code lifetime. Callers faking a response for
// unknown identifiers must use it so real and decoy expiries match.
func (s *Service) TTL() time.Duration { return s.cfg.TTL }

// Issue generates, stores and delivers a fresh code for the identifier.
// Supersession and rate-limit bookkeeping are committed before the channel
// is invoked, so a crash in between leaves the new code as the single valid
// one. A delivery failure keeps the code valid and the limiter charged.
func (s *Service) Issue(ctx context.Context, id Identifier) (IssueResult, error) {
	limited, err := s.dep.Limiter.IsLimited(ctx, id)
	if err != nil {
		return IssueResult{}, fmt.Errorf("otp: rate limit check: %w", err)
	}
	if limited {
		return IssueResult{Status: StatusRateLimited}, nil
	}

	code, err := GenerateCode(s.cfg.CodeLength)
	if err != nil {
		return IssueResult{}, err
	}

	// The account is resolved at issuance, not at verify, so attribution
	// stays consistent when the account is created or deleted in between.
	accountID, err := s.dep.Accounts.FindByIdentifier(ctx, id)
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		return IssueResult{}, fmt.Errorf("otp: account lookup: %w", err)
	}

	now := s.dep.Clock.Now()
	rec := Record{
		ID:         s.dep.UID.Generate(),
		Identifier: id,
		Code:       code,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.cfg.TTL),
		AccountID:  accountID,
	}
	if err := s.dep.Store.CreateSuperseding(ctx, rec); err != nil {
		return IssueResult{}, fmt.Errorf("otp: store code: %w", err)
	}

	if err := s.dep.Limiter.RecordAttempt(ctx, id); err != nil {
		return IssueResult{}, fmt.Errorf("otp: record attempt: %w", err)
	}

	if err := s.dep.Channel.Send(ctx, id, s.renderMessage(code)); err != nil {
		slog.WarnContext(ctx, "otp delivery failed", "identifier", Mask(id), "error", err)
		return IssueResult{Status: StatusDeliveryFailed, ExpiresAt: rec.ExpiresAt}, nil
	}

	return IssueResult{Status: StatusOK, ExpiresAt: rec.ExpiresAt}, nil
}

// Verify consumes the identifier's code. The code is burned on its first
// correct presentation regardless of what the caller does next. Wrong codes
// get a precise diagnostic, and in the attempt-capped variant they also
// charge the outstanding record, locking it when the cap is reached.
func (s *Service) Verify(ctx context.Context, id Identifier, code string) (VerifyResult, error) {
	now := s.dep.Clock.Now()

	rec, err := s.dep.Store.FindLive(ctx, id, code, now)
	if err == nil {
		consumed, err := s.dep.Store.Consume(ctx, rec.ID)
		if err != nil {
			return VerifyResult{}, fmt.Errorf("otp: consume code: %w", err)
		}
		if !consumed {
			// A concurrent verify won the race.
			return VerifyResult{Status: StatusAlreadyUsed}, nil
		}
		return VerifyResult{Status: StatusOK, AccountID: rec.AccountID}, nil
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		return VerifyResult{}, fmt.Errorf("otp: find code: %w", err)
	}

	status, err := s.diagnose(ctx, id, code, now)
	if err != nil {
		return VerifyResult{}, err
	}

	if s.cfg.MaxVerifyAttempts > 0 {
		locked, err := s.chargeFailure(ctx, id, now)
		if err != nil {
			return VerifyResult{}, err
		}
		if locked {
			status = StatusTooManyAttempts
		}
	}

	return VerifyResult{Status: status}, nil
}

// diagnose distinguishes already-used, expired and never-existed codes so
// callers can tell the user to request a new code versus stop reusing one.
func (s *Service) diagnose(ctx context.Context, id Identifier, code string, now time.Time) (Status, error) {
	rec, err := s.dep.Store.FindLatestByCode(ctx, id, code)
	if errors.Is(err, goerror.ErrNotFound) {
		return StatusNotFound, nil
	}
	if err != nil {
		return 0, fmt.Errorf("otp: diagnose code: %w", err)
	}

	switch {
	case rec.Used:
		return StatusAlreadyUsed, nil
	case !now.Before(rec.ExpiresAt):
		return StatusExpired, nil
	default:
		return StatusNotFound, nil
	}
}

// chargeFailure books a failed attempt against the identifier's outstanding
// live record and reports whether this failure locked it. The lock burns
// that specific record even though it was never correctly verified,
// distinct from the identifier-wide limiter.
func (s *Service) chargeFailure(ctx context.Context, id Identifier, now time.Time) (bool, error) {
	live, err := s.dep.Store.FindLatestLive(ctx, id, now)
	if errors.Is(err, goerror.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("otp: find live code: %w", err)
	}

	lock := live.Attempts+1 >= s.cfg.MaxVerifyAttempts
	if err := s.dep.Store.RecordFailure(ctx, live.ID, lock); err != nil {
		return false, fmt.Errorf("otp: record failure: %w", err)
	}
	return lock, nil
}

func (s *Service) renderMessage(code string) string {
	return fmt.Sprintf("Your verification code is %s. It expires in %d minutes. Do not share it with anyone.",
		code, int(s.cfg.TTL.Minutes()))
}
