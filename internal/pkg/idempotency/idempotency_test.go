package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupClient(t *testing.T) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine",
		testcontainers.WithWaitStrategy(wait.ForListeningPort(nat.Port("6379/tcp"))),
	)
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	opt, err := goredis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}

	client := goredis.NewClient(opt)
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("close client: %v", err)
		}
	})

	return client
}

func TestAcquireLifecycle(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()
	tracker := New(client)

	state, err := tracker.Acquire(ctx, "op-1", time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if state != StateNone {
		t.Fatalf("state = %v, want %v", state, StateNone)
	}

	// Second claim sees the in-progress lock.
	state, err = tracker.Acquire(ctx, "op-1", time.Minute)
	if err != nil {
		t.Fatalf("Acquire again: %v", err)
	}
	if state != StateInProgress {
		t.Fatalf("state = %v, want %v", state, StateInProgress)
	}

	if err := tracker.MarkCompleted(ctx, "op-1", time.Minute); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	state, err = tracker.Acquire(ctx, "op-1", time.Minute)
	if err != nil {
		t.Fatalf("Acquire after completion: %v", err)
	}
	if state != StateCompleted {
		t.Fatalf("state = %v, want %v", state, StateCompleted)
	}
}

func TestExecRunsOnce(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()
	tracker := New(client)

	runs := 0
	fn := func(context.Context) error {
		runs++
		return nil
	}

	if err := tracker.Exec(ctx, "op-2", fn); err != nil {
		t.Fatalf("Exec #1: %v", err)
	}

	err := tracker.Exec(ctx, "op-2", fn)
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("Exec #2 err = %v, want %v", err, ErrAlreadyCompleted)
	}
	if runs != 1 {
		t.Fatalf("runs = %d, want 1", runs)
	}
}

func TestExecMarksFailureAndAllowsInspection(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()
	tracker := New(client)

	boom := errors.New("boom")
	err := tracker.Exec(ctx, "op-3", func(context.Context) error { return boom }, WithStateTTL(time.Minute))
	if !errors.Is(err, boom) {
		t.Fatalf("Exec err = %v, want %v", err, boom)
	}

	state, err := tracker.Acquire(ctx, "op-3", time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if state != StateFailed {
		t.Fatalf("state = %v, want %v", state, StateFailed)
	}
}
