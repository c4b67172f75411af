package db

import (
	"context"

	"github.com/aruna-labs/identra/internal/identity/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

func (s *DB) CreateTOTPFactor(ctx context.Context, f entity.TOTPFactor) (err error) {
	ctx, span := s.startSpan(ctx, "CreateTOTPFactor")
	defer func() { s.endSpan(span, err) }()

	query := `
		insert into identity_totp_factors (id, user_id, secret, key_version, confirmed)
		values ($1, $2, $3, $4, $5)`
	if _, err := s.conn.Exec(ctx, query, f.ID, f.UserID, f.Secret, f.KeyVersion, f.Confirmed); err != nil {
		return s.mapError(err)
	}
	return nil
}

// GetTOTPFactor returns the newest factor for the user, optionally only a
// confirmed one.
func (s *DB) GetTOTPFactor(ctx context.Context, userID int64, confirmedOnly bool) (_ *entity.TOTPFactor, err error) {
	ctx, span := s.startSpan(ctx, "GetTOTPFactor")
	defer func() { s.endSpan(span, err) }()

	query := `
		select id, user_id, secret, key_version, confirmed
		from identity_totp_factors
		where user_id = $1 and (confirmed or not $2)
		order by id desc
		limit 1`

	var f entity.TOTPFactor
	err = s.conn.QueryRow(ctx, query, userID, confirmedOnly).Scan(
		&f.ID, &f.UserID, &f.Secret, &f.KeyVersion, &f.Confirmed,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &f, nil
}

func (s *DB) ConfirmTOTPFactor(ctx context.Context, factorID, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "ConfirmTOTPFactor")
	defer func() { s.endSpan(span, err) }()

	query := `update identity_totp_factors set confirmed = true where id = $1 and user_id = $2`
	tag, err := s.conn.Exec(ctx, query, factorID, userID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}
