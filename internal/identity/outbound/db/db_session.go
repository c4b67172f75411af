package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/aruna-labs/identra/internal/identity/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

func (s *DB) CreateSession(ctx context.Context, sess entity.RefreshSession) (err error) {
	ctx, span := s.startSpan(ctx, "CreateSession")
	defer func() { s.endSpan(span, err) }()

	query := `
		insert into identity_refresh_sessions (id, user_id, token, expires_at, metadata)
		values ($1, $2, $3, $4, $5)`
	if _, err := s.conn.Exec(ctx, query,
		sess.ID, sess.UserID, sess.Token, sess.ExpiresAt, sess.Metadata,
	); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *DB) GetSessionByTokenHash(ctx context.Context, tokenHash string) (_ *entity.SessionUser, err error) {
	ctx, span := s.startSpan(ctx, "GetSessionByTokenHash")
	defer func() { s.endSpan(span, err) }()

	query := `
		select s.id, s.token, s.revoked, s.replaced_by_id, s.expires_at,
			u.id, coalesce(u.email, ''), coalesce(u.phone, ''), u.status
		from identity_refresh_sessions s
		join identity_users u on u.id = s.user_id
		where s.token = $1`

	var (
		su         entity.SessionUser
		replacedBy pgtype.Int8
	)
	err = s.conn.QueryRow(ctx, query, tokenHash).Scan(
		&su.SessionID, &su.Token, &su.Revoked, &replacedBy, &su.ExpiresAt,
		&su.UserID, &su.UserEmail, &su.UserPhone, &su.UserStatus,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	if replacedBy.Valid {
		su.ReplacedByID = replacedBy.Int64
	}
	return &su, nil
}

// RotateSession retires the old session and creates its replacement in one
// transaction, so a crash cannot leave two live tokens.
func (s *DB) RotateSession(ctx context.Context, ro entity.RotateSession) (err error) {
	ctx, span := s.startSpan(ctx, "RotateSession")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	retire := `
		update identity_refresh_sessions
		set revoked = true, replaced_by_id = $2
		where id = $1 and revoked = false and replaced_by_id is null`
	tag, err := tx.Exec(ctx, retire, ro.OldID, ro.NewID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	insert := `
		insert into identity_refresh_sessions (id, user_id, token, expires_at)
		values ($1, $2, $3, $4)`
	if _, err := tx.Exec(ctx, insert, ro.NewID, ro.UserID, ro.NewToken, ro.NewExpiresAt); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) RevokeSession(ctx context.Context, tokenHash string) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeSession")
	defer func() { s.endSpan(span, err) }()

	query := `update identity_refresh_sessions set revoked = true where token = $1 and revoked = false`
	tag, err := s.conn.Exec(ctx, query, tokenHash)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}

func (s *DB) RevokeAllSessions(ctx context.Context, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeAllSessions")
	defer func() { s.endSpan(span, err) }()

	query := `update identity_refresh_sessions set revoked = true where user_id = $1 and revoked = false`
	if _, err := s.conn.Exec(ctx, query, userID); err != nil {
		return s.mapError(err)
	}
	return nil
}
