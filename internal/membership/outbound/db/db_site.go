package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/aruna-labs/identra/internal/membership/entity"
)

// CreateSite inserts the site and its owner membership in one transaction.
func (s *DB) CreateSite(ctx context.Context, site entity.Site, owner entity.Membership) (err error) {
	ctx, span := s.startSpan(ctx, "CreateSite")
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

	insertSite := `
		insert into membership_sites (id, slug, name, owner_id, created_at)
		values ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(ctx, insertSite,
		site.ID, site.Slug, site.Name, site.OwnerID, site.CreatedAt,
	); err != nil {
		return s.mapError(err)
	}

	insertOwner := `
		insert into membership_members (site_id, user_id, role, status, created_at)
		values ($1, $2, $3, $4, $5)`
	if _, err := tx.Exec(ctx, insertOwner,
		owner.SiteID, owner.UserID, owner.Role, owner.Status, owner.CreatedAt,
	); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) GetSiteBySlug(ctx context.Context, slug string) (_ *entity.Site, err error) {
	ctx, span := s.startSpan(ctx, "GetSiteBySlug")
	defer func() { s.endSpan(span, err) }()

	query := `select id, slug, name, owner_id, created_at from membership_sites where slug = $1`

	var site entity.Site
	err = s.conn.QueryRow(ctx, query, slug).Scan(&site.ID, &site.Slug, &site.Name, &site.OwnerID, &site.CreatedAt)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &site, nil
}

func (s *DB) ListSitesByUser(ctx context.Context, userID int64) (_ []entity.Site, err error) {
	ctx, span := s.startSpan(ctx, "ListSitesByUser")
	defer func() { s.endSpan(span, err) }()

	query := `
		select s.id, s.slug, s.name, s.owner_id, s.created_at
		from membership_sites s
		join membership_members m on m.site_id = s.id
		where m.user_id = $1 and m.status = $2
		order by s.created_at`

	rows, err := s.conn.Query(ctx, query, userID, entity.MemberStatusActive)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var sites []entity.Site
	for rows.Next() {
		var site entity.Site
		if err = rows.Scan(&site.ID, &site.Slug, &site.Name, &site.OwnerID, &site.CreatedAt); err != nil {
			return nil, s.mapError(err)
		}
		sites = append(sites, site)
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return sites, nil
}
