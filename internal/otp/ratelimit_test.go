package otp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aruna-labs/identra/internal/pkg/clock"
)

func TestRateLimiterAllowsUpToMaxWithinWindow(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewStatic(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	l := NewRateLimiter(newMemLimitStore(), clk, LimiterConfig{MaxAttempts: 5, Window: 15 * time.Minute})
	id := Identifier("a@b.com")

	for i := 0; i < 5; i++ {
		limited, err := l.IsLimited(ctx, id)
		if err != nil {
			t.Fatalf("IsLimited #%d: %v", i+1, err)
		}
		if limited {
			t.Fatalf("request #%d limited, want allowed", i+1)
		}
		if err := l.RecordAttempt(ctx, id); err != nil {
			t.Fatalf("RecordAttempt #%d: %v", i+1, err)
		}
		clk.Advance(time.Minute)
	}

	limited, err := l.IsLimited(ctx, id)
	if err != nil {
		t.Fatalf("IsLimited: %v", err)
	}
	if !limited {
		t.Fatal("6th request allowed, want limited")
	}
}

func TestRateLimiterLockoutEndsAtWindowRollover(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewStatic(start)
	store := newMemLimitStore()
	l := NewRateLimiter(store, clk, LimiterConfig{MaxAttempts: 5, Window: 15 * time.Minute})
	id := Identifier("a@b.com")

	for i := 0; i < 5; i++ {
		if err := l.RecordAttempt(ctx, id); err != nil {
			t.Fatalf("RecordAttempt: %v", err)
		}
	}

	// The lockout must end when the original window rolls over, not a full
	// window after the blocking attempt.
	rl := store.rows[id]
	if want := start.Add(15 * time.Minute); !rl.BlockedUntil.Equal(want) {
		t.Fatalf("BlockedUntil = %v, want %v", rl.BlockedUntil, want)
	}

	clk.Time = start.Add(14 * time.Minute)
	if limited, _ := l.IsLimited(ctx, id); !limited {
		t.Fatal("inside lockout, want limited")
	}

	clk.Time = start.Add(16 * time.Minute)
	limited, err := l.IsLimited(ctx, id)
	if err != nil {
		t.Fatalf("IsLimited: %v", err)
	}
	if limited {
		t.Fatal("after window rollover, want allowed")
	}
}

func TestRateLimiterWindowResetStartsFresh(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewStatic(start)
	store := newMemLimitStore()
	l := NewRateLimiter(store, clk, LimiterConfig{MaxAttempts: 5, Window: 15 * time.Minute})
	id := Identifier("a@b.com")

	for i := 0; i < 3; i++ {
		if err := l.RecordAttempt(ctx, id); err != nil {
			t.Fatalf("RecordAttempt: %v", err)
		}
	}

	clk.Time = start.Add(16 * time.Minute)
	if limited, _ := l.IsLimited(ctx, id); limited {
		t.Fatal("expired window, want allowed")
	}
	if err := l.RecordAttempt(ctx, id); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	rl := store.rows[id]
	if rl.RequestCount != 1 {
		t.Fatalf("RequestCount = %d, want 1 after reset", rl.RequestCount)
	}
	if !rl.WindowStart.Equal(clk.Time) {
		t.Fatalf("WindowStart = %v, want %v", rl.WindowStart, clk.Time)
	}
	if !rl.BlockedUntil.IsZero() {
		t.Fatalf("BlockedUntil = %v, want zero", rl.BlockedUntil)
	}
}

func TestRateLimiterUnknownIdentifierNotLimited(t *testing.T) {
	l := NewRateLimiter(newMemLimitStore(), clock.NewStatic(time.Now()), LimiterConfig{})
	limited, err := l.IsLimited(context.Background(), "nobody@b.com")
	if err != nil {
		t.Fatalf("IsLimited: %v", err)
	}
	if limited {
		t.Fatal("unknown identifier limited, want allowed")
	}
}

func TestRateLimiterStoreFaultFailsClosed(t *testing.T) {
	store := newMemLimitStore()
	store.failAll = errors.New("connection refused")
	l := NewRateLimiter(store, clock.NewStatic(time.Now()), LimiterConfig{})

	if _, err := l.IsLimited(context.Background(), "a@b.com"); err == nil {
		t.Fatal("IsLimited err = nil, want store fault")
	}
	if err := l.RecordAttempt(context.Background(), "a@b.com"); err == nil {
		t.Fatal("RecordAttempt err = nil, want store fault")
	}
}
