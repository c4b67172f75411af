package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/aruna-labs/identra/internal/identity/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

const selectUserColumns = `id, coalesce(email, ''), coalesce(phone, ''), full_name, avatar_url, status, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	err := row.Scan(&u.ID, &u.Email, &u.Phone, &u.FullName, &u.AvatarURL, &u.Status, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	query := `select ` + selectUserColumns + ` from identity_users where id = $1`
	user, err := scanUser(s.conn.QueryRow(ctx, query, id))
	if err != nil {
		return nil, s.mapError(err)
	}
	return user, nil
}

func (s *DB) GetUserByIdentifier(ctx context.Context, identifier string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByIdentifier")
	defer func() { s.endSpan(span, err) }()

	query := `select ` + selectUserColumns + ` from identity_users where email = $1 or phone = $1`
	user, err := scanUser(s.conn.QueryRow(ctx, query, identifier))
	if err != nil {
		return nil, s.mapError(err)
	}
	return user, nil
}

func (s *DB) GetUserLoginInfo(ctx context.Context, identifier string) (_ *entity.UserLoginInfo, err error) {
	ctx, span := s.startSpan(ctx, "GetUserLoginInfo")
	defer func() { s.endSpan(span, err) }()

	query := `
		select u.id, coalesce(u.email, ''), coalesce(u.phone, ''), u.full_name, u.status, c.password,
			exists (select 1 from identity_totp_factors f where f.user_id = u.id and f.confirmed)
		from identity_users u
		join identity_user_credentials c on c.user_id = u.id
		where u.email = $1 or u.phone = $1`

	var info entity.UserLoginInfo
	err = s.conn.QueryRow(ctx, query, identifier).Scan(
		&info.ID, &info.Email, &info.Phone, &info.FullName, &info.Status, &info.Password, &info.TOTPEnabled,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &info, nil
}

func (s *DB) CreateUser(ctx context.Context, user entity.NewUser, passwordHash string) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
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

	insertUser := `
		insert into identity_users (id, email, phone, full_name, avatar_url, status)
		values ($1, nullif($2, ''), nullif($3, ''), $4, $5, $6)`
	if _, err := tx.Exec(ctx, insertUser,
		user.ID, user.Email, user.Phone, user.FullName, user.AvatarURL, user.Status,
	); err != nil {
		return s.mapError(err)
	}

	insertCredential := `insert into identity_user_credentials (user_id, password) values ($1, $2)`
	if _, err := tx.Exec(ctx, insertCredential, user.ID, passwordHash); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) ActivateUser(ctx context.Context, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "ActivateUser")
	defer func() { s.endSpan(span, err) }()

	query := `update identity_users set status = $2, updated_at = now() where id = $1`
	tag, err := s.conn.Exec(ctx, query, userID, entity.UserStatusActive)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}

func (s *DB) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserPassword")
	defer func() { s.endSpan(span, err) }()

	query := `
		insert into identity_user_credentials (user_id, password) values ($1, $2)
		on conflict (user_id) do update set password = excluded.password`
	if _, err := s.conn.Exec(ctx, query, userID, passwordHash); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *DB) UpdateUserProfile(ctx context.Context, userID int64, fullName, avatarURL string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserProfile")
	defer func() { s.endSpan(span, err) }()

	query := `update identity_users set full_name = $2, avatar_url = $3, updated_at = now() where id = $1`
	tag, err := s.conn.Exec(ctx, query, userID, fullName, avatarURL)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}

// UpsertOAuthUser inserts the provider-reported profile or refreshes the
// display fields of the account already holding the email.
func (s *DB) UpsertOAuthUser(ctx context.Context, user entity.NewUser) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "UpsertOAuthUser")
	defer func() { s.endSpan(span, err) }()

	query := `
		insert into identity_users (id, email, full_name, avatar_url, status)
		values ($1, $2, $3, $4, $5)
		on conflict (email) do update
			set full_name = excluded.full_name, avatar_url = excluded.avatar_url, updated_at = now()
		returning id`

	var id int64
	err = s.conn.QueryRow(ctx, query,
		user.ID, user.Email, user.FullName, user.AvatarURL, user.Status,
	).Scan(&id)
	if err != nil {
		return 0, s.mapError(err)
	}
	return id, nil
}
