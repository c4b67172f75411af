package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/aruna-labs/identra/internal/identity/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

func (s *DB) CreateCredentialChange(ctx context.Context, ch entity.CredentialChange) (err error) {
	ctx, span := s.startSpan(ctx, "CreateCredentialChange")
	defer func() { s.endSpan(span, err) }()

	query := `
		insert into identity_credential_changes (id, user_id, new_identifier, is_email, created_at)
		values ($1, $2, $3, $4, $5)`
	if _, err := s.conn.Exec(ctx, query,
		ch.ID, ch.UserID, ch.NewIdentifier, ch.IsEmail, ch.CreatedAt,
	); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *DB) GetCredentialChange(ctx context.Context, userID int64, newIdentifier string) (_ *entity.CredentialChange, err error) {
	ctx, span := s.startSpan(ctx, "GetCredentialChange")
	defer func() { s.endSpan(span, err) }()

	query := `
		select id, user_id, new_identifier, is_email, created_at
		from identity_credential_changes
		where user_id = $1 and new_identifier = $2
		order by created_at desc
		limit 1`

	var ch entity.CredentialChange
	err = s.conn.QueryRow(ctx, query, userID, newIdentifier).Scan(
		&ch.ID, &ch.UserID, &ch.NewIdentifier, &ch.IsEmail, &ch.CreatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &ch, nil
}

// ApplyCredentialChange swaps the user's identifier and retires the pending
// change in one transaction.
func (s *DB) ApplyCredentialChange(ctx context.Context, ch entity.CredentialChange) (err error) {
	ctx, span := s.startSpan(ctx, "ApplyCredentialChange")
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

	swap := `update identity_users set phone = $2, updated_at = now() where id = $1`
	if ch.IsEmail {
		swap = `update identity_users set email = $2, updated_at = now() where id = $1`
	}
	tag, err := tx.Exec(ctx, swap, ch.UserID, ch.NewIdentifier)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `delete from identity_credential_changes where id = $1`, ch.ID); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}
