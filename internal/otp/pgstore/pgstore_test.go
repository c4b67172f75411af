package pgstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/aruna-labs/identra/internal/otp"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("identra_test"),
		postgres.WithUsername("identra"),
		postgres.WithPassword("identra"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, Schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	if _, err := pool.Exec(ctx,
		`create table if not exists identity_users (id bigint primary key, email text, phone text)`); err != nil {
		t.Fatalf("create users table: %v", err)
	}
	return pool
}

func TestCodeStore(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	ins := instrument.NewNoop()
	store := NewCodeStore(pool, ins)

	now := time.Now().UTC().Truncate(time.Microsecond)
	id := otp.Identifier("a@b.com")

	first := otp.Record{
		ID: 1, Identifier: id, Code: "042315",
		CreatedAt: now, ExpiresAt: now.Add(5 * time.Minute), AccountID: 42,
	}
	if err := store.CreateSuperseding(ctx, first); err != nil {
		t.Fatalf("CreateSuperseding #1: %v", err)
	}

	got, err := store.FindLive(ctx, id, "042315", now)
	if err != nil {
		t.Fatalf("FindLive: %v", err)
	}
	if got.ID != 1 || got.AccountID != 42 || got.Used {
		t.Fatalf("FindLive = %+v", got)
	}

	// Codes are exact strings; "42315" must not match "042315".
	if _, err := store.FindLive(ctx, id, "42315", now); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("FindLive truncated code err = %v, want ErrNotFound", err)
	}

	// A second issuance supersedes the first.
	second := otp.Record{
		ID: 2, Identifier: id, Code: "771042",
		CreatedAt: now.Add(time.Minute), ExpiresAt: now.Add(6 * time.Minute),
	}
	if err := store.CreateSuperseding(ctx, second); err != nil {
		t.Fatalf("CreateSuperseding #2: %v", err)
	}
	if _, err := store.FindLive(ctx, id, "042315", now.Add(time.Minute)); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("superseded code still live, err = %v", err)
	}
	diag, err := store.FindLatestByCode(ctx, id, "042315")
	if err != nil {
		t.Fatalf("FindLatestByCode: %v", err)
	}
	if !diag.Used {
		t.Fatal("superseded record not marked used")
	}

	live, err := store.FindLatestLive(ctx, id, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("FindLatestLive: %v", err)
	}
	if live.ID != 2 {
		t.Fatalf("FindLatestLive ID = %d, want 2", live.ID)
	}
	if live.AccountID != 0 {
		t.Fatalf("AccountID = %d, want 0 for null column", live.AccountID)
	}

	// Consumption wins exactly once.
	won, err := store.Consume(ctx, 2)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if !won {
		t.Fatal("first Consume lost")
	}
	won, err = store.Consume(ctx, 2)
	if err != nil {
		t.Fatalf("Consume again: %v", err)
	}
	if won {
		t.Fatal("second Consume won")
	}
}

func TestCodeStoreRecordFailure(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	store := NewCodeStore(pool, instrument.NewNoop())

	now := time.Now().UTC()
	rec := otp.Record{
		ID: 10, Identifier: "c@d.com", Code: "123456",
		CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute),
	}
	if err := store.CreateSuperseding(ctx, rec); err != nil {
		t.Fatalf("CreateSuperseding: %v", err)
	}

	for i := 0; i < 4; i++ {
		if err := store.RecordFailure(ctx, 10, false); err != nil {
			t.Fatalf("RecordFailure #%d: %v", i+1, err)
		}
	}
	got, err := store.FindLatestByCode(ctx, "c@d.com", "123456")
	if err != nil {
		t.Fatalf("FindLatestByCode: %v", err)
	}
	if got.Attempts != 4 || got.Used {
		t.Fatalf("after 4 failures: attempts=%d used=%v", got.Attempts, got.Used)
	}

	if err := store.RecordFailure(ctx, 10, true); err != nil {
		t.Fatalf("RecordFailure lock: %v", err)
	}
	got, err = store.FindLatestByCode(ctx, "c@d.com", "123456")
	if err != nil {
		t.Fatalf("FindLatestByCode: %v", err)
	}
	if got.Attempts != 5 || !got.Used {
		t.Fatalf("after lock: attempts=%d used=%v", got.Attempts, got.Used)
	}
}

func TestLimitStore(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	store := NewLimitStore(pool, instrument.NewNoop())
	id := otp.Identifier("+15551234567")

	if _, err := store.Get(ctx, id); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("Get unknown err = %v, want ErrNotFound", err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	rl := otp.RateLimit{Identifier: id, RequestCount: 1, WindowStart: now}
	if err := store.Save(ctx, rl); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.RequestCount != 1 || !got.WindowStart.Equal(now) || !got.BlockedUntil.IsZero() {
		t.Fatalf("Get = %+v", got)
	}

	// Upsert path with a lockout deadline.
	rl.RequestCount = 5
	rl.BlockedUntil = now.Add(15 * time.Minute)
	if err := store.Save(ctx, rl); err != nil {
		t.Fatalf("Save upsert: %v", err)
	}
	got, err = store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.RequestCount != 5 || !got.BlockedUntil.Equal(rl.BlockedUntil) {
		t.Fatalf("Get after upsert = %+v", got)
	}
}

func TestAccountLookup(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	lookup := NewAccountLookup(pool, instrument.NewNoop())

	if _, err := pool.Exec(ctx,
		`insert into identity_users (id, email, phone) values (42, 'a@b.com', '+15551234567')`); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	for _, id := range []otp.Identifier{"a@b.com", "+15551234567"} {
		accountID, err := lookup.FindByIdentifier(ctx, id)
		if err != nil {
			t.Fatalf("FindByIdentifier(%s): %v", id, err)
		}
		if accountID != 42 {
			t.Fatalf("FindByIdentifier(%s) = %d, want 42", id, accountID)
		}
	}

	if _, err := lookup.FindByIdentifier(ctx, "nobody@b.com"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("unknown identifier err = %v, want ErrNotFound", err)
	}
}
