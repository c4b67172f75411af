package db

import (
	"context"

	"github.com/aruna-labs/identra/internal/identity/entity"
)

func (s *DB) CreateChallenge(ctx context.Context, ch entity.LoginChallenge) (err error) {
	ctx, span := s.startSpan(ctx, "CreateChallenge")
	defer func() { s.endSpan(span, err) }()

	query := `
		insert into identity_challenges (id, user_id, token, purpose, expires_at)
		values ($1, $2, $3, $4, $5)`
	if _, err := s.conn.Exec(ctx, query, ch.ID, ch.UserID, ch.Token, ch.Purpose, ch.ExpiresAt); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *DB) GetChallengeByTokenHash(ctx context.Context, tokenHash string) (_ *entity.ChallengeUser, err error) {
	ctx, span := s.startSpan(ctx, "GetChallengeByTokenHash")
	defer func() { s.endSpan(span, err) }()

	query := `
		select c.id, c.purpose, c.expires_at,
			u.id, coalesce(u.email, ''), coalesce(u.phone, ''), u.status
		from identity_challenges c
		join identity_users u on u.id = c.user_id
		where c.token = $1`

	var cu entity.ChallengeUser
	err = s.conn.QueryRow(ctx, query, tokenHash).Scan(
		&cu.ChallengeID, &cu.Purpose, &cu.ExpiresAt,
		&cu.UserID, &cu.UserEmail, &cu.UserPhone, &cu.UserStatus,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &cu, nil
}

func (s *DB) DeleteChallenge(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteChallenge")
	defer func() { s.endSpan(span, err) }()

	if _, err := s.conn.Exec(ctx, `delete from identity_challenges where id = $1`, id); err != nil {
		return s.mapError(err)
	}
	return nil
}
