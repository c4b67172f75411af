package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/aruna-labs/identra/internal/otp"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
)

// LimitStore is the pgx-backed otp.LimitStore.
type LimitStore struct {
	conn Conn
	ins  instrument.Instrumentation
}

var _ otp.LimitStore = (*LimitStore)(nil)

// NewLimitStore builds a LimitStore over the given pool.
func NewLimitStore(conn Conn, ins instrument.Instrumentation) *LimitStore {
	return &LimitStore{conn: conn, ins: ins}
}

// Get returns the rate-limit row for the identifier.
func (s *LimitStore) Get(ctx context.Context, id otp.Identifier) (_ otp.RateLimit, err error) {
	ctx, span := startSpan(ctx, s.ins, "Get")
	defer func() { endSpan(span, err) }()

	rl := otp.RateLimit{Identifier: id}
	var blockedUntil pgtype.Timestamptz
	err = s.conn.QueryRow(ctx,
		`select request_count, window_start, blocked_until from otp_rate_limits where identifier = $1`,
		id).Scan(&rl.RequestCount, &rl.WindowStart, &blockedUntil)
	if err != nil {
		return otp.RateLimit{}, mapError(err)
	}
	if blockedUntil.Valid {
		rl.BlockedUntil = blockedUntil.Time
	}
	return rl, nil
}

// Save upserts the identifier's rate-limit row.
func (s *LimitStore) Save(ctx context.Context, rl otp.RateLimit) (err error) {
	ctx, span := startSpan(ctx, s.ins, "Save")
	defer func() { endSpan(span, err) }()

	blockedUntil := pgtype.Timestamptz{Time: rl.BlockedUntil, Valid: !rl.BlockedUntil.IsZero()}
	_, err = s.conn.Exec(ctx,
		`insert into otp_rate_limits (identifier, request_count, window_start, blocked_until)
		 values ($1, $2, $3, $4)
		 on conflict (identifier) do update
		 set request_count = excluded.request_count,
		     window_start = excluded.window_start,
		     blocked_until = excluded.blocked_until`,
		rl.Identifier, rl.RequestCount, rl.WindowStart, blockedUntil)
	return mapError(err)
}
