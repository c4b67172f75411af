package otp

import (
	"context"
	"errors"
	"time"

	"github.com/aruna-labs/identra/internal/pkg/clock"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

const (
	// DefaultMaxAttempts is the request allowance per window.
	DefaultMaxAttempts = 5
	// DefaultWindow is the sliding window duration.
	DefaultWindow = 15 * time.Minute
)

// LimiterConfig configures a RateLimiter. Zero values fall back to the
// defaults.
type LimiterConfig struct {
	MaxAttempts int
	Window      time.Duration
}

// RateLimiter decides whether a new code request for an identifier is
// allowed and records the ones that proceed. The window resets entirely
// once it elapses rather than decaying continuously.
type RateLimiter struct {
	store       LimitStore
	clock       clock.Clocker
	maxAttempts int
	window      time.Duration
}

// NewRateLimiter builds a limiter over the given store and clock.
func NewRateLimiter(store LimitStore, clk clock.Clocker, cfg LimiterConfig) *RateLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	return &RateLimiter{
		store:       store,
		clock:       clk,
		maxAttempts: cfg.MaxAttempts,
		window:      cfg.Window,
	}
}

// IsLimited reports whether a new request for the identifier must be
// refused. An elapsed window is reset and persisted here so a later
// RecordAttempt starts from fresh state. Store faults propagate; the
// request is never silently allowed.
func (l *RateLimiter) IsLimited(ctx context.Context, id Identifier) (bool, error) {
	rl, err := l.store.Get(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	now := l.clock.Now()
	if !rl.BlockedUntil.IsZero() && now.Before(rl.BlockedUntil) {
		return true, nil
	}

	if l.windowExpired(rl, now) {
		rl.RequestCount = 0
		rl.WindowStart = now
		rl.BlockedUntil = time.Time{}
		if err := l.store.Save(ctx, rl); err != nil {
			return false, err
		}
		return false, nil
	}

	return rl.RequestCount >= l.maxAttempts, nil
}

// RecordAttempt books one permitted request. When the post-increment count
// reaches the allowance, the lockout lasts exactly until the original
// window would have rolled over, not a fresh full window from now.
func (l *RateLimiter) RecordAttempt(ctx context.Context, id Identifier) error {
	now := l.clock.Now()

	rl, err := l.store.Get(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		return l.store.Save(ctx, RateLimit{
			Identifier:   id,
			RequestCount: 1,
			WindowStart:  now,
		})
	}
	if err != nil {
		return err
	}

	if l.windowExpired(rl, now) {
		rl.RequestCount = 1
		rl.WindowStart = now
		rl.BlockedUntil = time.Time{}
		return l.store.Save(ctx, rl)
	}

	rl.RequestCount++
	if rl.RequestCount >= l.maxAttempts {
		rl.BlockedUntil = rl.WindowStart.Add(l.window)
	}
	return l.store.Save(ctx, rl)
}

func (l *RateLimiter) windowExpired(rl RateLimit, now time.Time) bool {
	return !now.Before(rl.WindowStart.Add(l.window))
}
