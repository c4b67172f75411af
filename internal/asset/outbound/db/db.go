// Package db persists asset metadata rows in Postgres. The blobs
// themselves live in object storage.
package db

import (
	"context"
	_ "embed"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aruna-labs/identra/internal/asset/entity"
	"github.com/aruna-labs/identra/internal/pkg/goerror"
	"github.com/aruna-labs/identra/internal/pkg/instrument"
)

// Schema creates the asset tables.
//
//go:embed schema.sql
var Schema string

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("asset.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *DB) CreateAsset(ctx context.Context, asset entity.NewAsset) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAsset")
	defer func() { s.endSpan(span, err) }()

	query := `
		insert into asset_objects (id, owner_id, bucket, key, file_name, extension, content_type, size)
		values ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = s.conn.Exec(ctx, query,
		asset.ID, asset.OwnerID, asset.Bucket, asset.Key,
		asset.FileName, asset.Extension, asset.ContentType, asset.Size,
	)
	return s.mapError(err)
}

func (s *DB) GetAsset(ctx context.Context, ownerID, id int64) (_ *entity.Asset, err error) {
	ctx, span := s.startSpan(ctx, "GetAsset")
	defer func() { s.endSpan(span, err) }()

	query := `
		select id, owner_id, bucket, key, file_name, extension, content_type, size, created_at
		from asset_objects
		where id = $1 and owner_id = $2 and deleted_at is null`
	var asset entity.Asset
	err = s.conn.QueryRow(ctx, query, id, ownerID).Scan(
		&asset.ID, &asset.OwnerID, &asset.Bucket, &asset.Key,
		&asset.FileName, &asset.Extension, &asset.ContentType, &asset.Size, &asset.CreatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &asset, nil
}

func (s *DB) ListAssets(ctx context.Context, ownerID int64, limit, offset int32) (_ []entity.Asset, err error) {
	ctx, span := s.startSpan(ctx, "ListAssets")
	defer func() { s.endSpan(span, err) }()

	query := `
		select id, owner_id, bucket, key, file_name, extension, content_type, size, created_at
		from asset_objects
		where owner_id = $1 and deleted_at is null
		order by created_at desc
		limit $2 offset $3`
	rows, err := s.conn.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var assets []entity.Asset
	for rows.Next() {
		var asset entity.Asset
		if err = rows.Scan(
			&asset.ID, &asset.OwnerID, &asset.Bucket, &asset.Key,
			&asset.FileName, &asset.Extension, &asset.ContentType, &asset.Size, &asset.CreatedAt,
		); err != nil {
			return nil, s.mapError(err)
		}
		assets = append(assets, asset)
	}

	return assets, s.mapError(rows.Err())
}

// SoftDeleteAsset hides the row. The caller removes the blob separately;
// the row survives as an audit trail for the object key.
func (s *DB) SoftDeleteAsset(ctx context.Context, ownerID, id int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "SoftDeleteAsset")
	defer func() { s.endSpan(span, err) }()

	query := `
		update asset_objects
		set deleted_at = now()
		where id = $1 and owner_id = $2 and deleted_at is null`
	tag, err := s.conn.Exec(ctx, query, id, ownerID)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() > 0, nil
}
