package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/aruna-labs/identra/internal/otp"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
)

// Schema is the DDL for the OTP tables, applied by the bootstrap migration
// and the integration tests.
//
//go:embed schema.sql
var Schema string

// CodeStore is the pgx-backed otp.Store.
type CodeStore struct {
	conn Conn
	ins  instrument.Instrumentation
}

var _ otp.Store = (*CodeStore)(nil)

// NewCodeStore builds a CodeStore over the given pool.
func NewCodeStore(conn Conn, ins instrument.Instrumentation) *CodeStore {
	return &CodeStore{conn: conn, ins: ins}
}

const selectRecordColumns = `select id, identifier, code, created_at, expires_at, used, attempts, account_id
from otp_codes`

func scanRecord(row pgx.Row) (otp.Record, error) {
	var rec otp.Record
	var accountID pgtype.Int8
	err := row.Scan(&rec.ID, &rec.Identifier, &rec.Code, &rec.CreatedAt,
		&rec.ExpiresAt, &rec.Used, &rec.Attempts, &accountID)
	if err != nil {
		return otp.Record{}, mapError(err)
	}
	if accountID.Valid {
		rec.AccountID = accountID.Int64
	}
	return rec, nil
}

// CreateSuperseding burns every live code for the identifier and inserts the
// new record in one transaction, so a concurrent verify never observes a
// half-superseded state.
func (s *CodeStore) CreateSuperseding(ctx context.Context, rec otp.Record) (err error) {
	ctx, span := startSpan(ctx, s.ins, "CreateSuperseding")
	defer func() { endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	_, err = tx.Exec(ctx,
		`update otp_codes set used = true where identifier = $1 and used = false and expires_at > $2`,
		rec.Identifier, rec.CreatedAt)
	if err != nil {
		return mapError(err)
	}

	accountID := pgtype.Int8{Int64: rec.AccountID, Valid: rec.AccountID != 0}
	_, err = tx.Exec(ctx,
		`insert into otp_codes (id, identifier, code, created_at, expires_at, used, attempts, account_id)
		 values ($1, $2, $3, $4, $5, false, 0, $6)`,
		rec.ID, rec.Identifier, rec.Code, rec.CreatedAt, rec.ExpiresAt, accountID)
	if err != nil {
		return mapError(err)
	}

	return mapError(tx.Commit(ctx))
}

// FindLive returns the newest unused, unexpired record for the identifier
// and exact code string.
func (s *CodeStore) FindLive(ctx context.Context, id otp.Identifier, code string, now time.Time) (_ otp.Record, err error) {
	ctx, span := startSpan(ctx, s.ins, "FindLive")
	defer func() { endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, selectRecordColumns+
		` where identifier = $1 and code = $2 and used = false and expires_at > $3
		 order by created_at desc, id desc limit 1`,
		id, code, now)
	rec, err := scanRecord(row)
	return rec, err
}

// FindLatestByCode returns the newest record for the identifier and code
// regardless of state.
func (s *CodeStore) FindLatestByCode(ctx context.Context, id otp.Identifier, code string) (_ otp.Record, err error) {
	ctx, span := startSpan(ctx, s.ins, "FindLatestByCode")
	defer func() { endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, selectRecordColumns+
		` where identifier = $1 and code = $2 order by created_at desc, id desc limit 1`,
		id, code)
	rec, err := scanRecord(row)
	return rec, err
}

// FindLatestLive returns the newest unused, unexpired record for the
// identifier.
func (s *CodeStore) FindLatestLive(ctx context.Context, id otp.Identifier, now time.Time) (_ otp.Record, err error) {
	ctx, span := startSpan(ctx, s.ins, "FindLatestLive")
	defer func() { endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, selectRecordColumns+
		` where identifier = $1 and used = false and expires_at > $2
		 order by created_at desc, id desc limit 1`,
		id, now)
	rec, err := scanRecord(row)
	return rec, err
}

// Consume marks the record used if it still is not, reporting whether this
// call won. The conditional update makes consumption single-use under
// concurrent verifies.
func (s *CodeStore) Consume(ctx context.Context, recordID int64) (_ bool, err error) {
	ctx, span := startSpan(ctx, s.ins, "Consume")
	defer func() { endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`update otp_codes set used = true where id = $1 and used = false`, recordID)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// RecordFailure increments the attempt count; when lock is set the record is
// burned as well.
func (s *CodeStore) RecordFailure(ctx context.Context, recordID int64, lock bool) (err error) {
	ctx, span := startSpan(ctx, s.ins, "RecordFailure")
	defer func() { endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`update otp_codes set attempts = attempts + 1, used = used or $2 where id = $1`,
		recordID, lock)
	return mapError(err)
}
