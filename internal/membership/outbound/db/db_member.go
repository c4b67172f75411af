package db

import (
	"context"

	"github.com/aruna-labs/identra/internal/membership/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
)

func (s *DB) AddMember(ctx context.Context, m entity.Membership) (err error) {
	ctx, span := s.startSpan(ctx, "AddMember")
	defer func() { s.endSpan(span, err) }()

	query := `
		insert into membership_members (site_id, user_id, role, status, created_at)
		values ($1, $2, $3, $4, $5)`
	if _, err = s.conn.Exec(ctx, query, m.SiteID, m.UserID, m.Role, m.Status, m.CreatedAt); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *DB) GetMembership(ctx context.Context, siteID, userID int64) (_ *entity.Membership, err error) {
	ctx, span := s.startSpan(ctx, "GetMembership")
	defer func() { s.endSpan(span, err) }()

	query := `
		select site_id, user_id, role, status, created_at
		from membership_members
		where site_id = $1 and user_id = $2`

	var m entity.Membership
	err = s.conn.QueryRow(ctx, query, siteID, userID).Scan(&m.SiteID, &m.UserID, &m.Role, &m.Status, &m.CreatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &m, nil
}

// ListMembers joins the user directory so callers get display names.
func (s *DB) ListMembers(ctx context.Context, siteID int64) (_ []entity.Member, err error) {
	ctx, span := s.startSpan(ctx, "ListMembers")
	defer func() { s.endSpan(span, err) }()

	query := `
		select m.user_id, u.full_name, m.role, m.status, m.created_at
		from membership_members m
		join identity_users u on u.id = m.user_id
		where m.site_id = $1
		order by m.created_at`

	rows, err := s.conn.Query(ctx, query, siteID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var members []entity.Member
	for rows.Next() {
		var m entity.Member
		if err = rows.Scan(&m.UserID, &m.FullName, &m.Role, &m.Status, &m.JoinedAt); err != nil {
			return nil, s.mapError(err)
		}
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return members, nil
}

func (s *DB) UpdateMemberRole(ctx context.Context, siteID, userID int64, role entity.Role) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateMemberRole")
	defer func() { s.endSpan(span, err) }()

	query := `update membership_members set role = $3 where site_id = $1 and user_id = $2`
	tag, err := s.conn.Exec(ctx, query, siteID, userID, role)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}

func (s *DB) RemoveMember(ctx context.Context, siteID, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "RemoveMember")
	defer func() { s.endSpan(span, err) }()

	query := `delete from membership_members where site_id = $1 and user_id = $2`
	tag, err := s.conn.Exec(ctx, query, siteID, userID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}

func (s *DB) UserExists(ctx context.Context, userID int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "UserExists")
	defer func() { s.endSpan(span, err) }()

	var exists bool
	query := `select exists (select 1 from identity_users where id = $1)`
	if err = s.conn.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, s.mapError(err)
	}
	return exists, nil
}
