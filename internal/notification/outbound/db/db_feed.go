package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/aruna-labs/identra/internal/notification/entity"
)

func (s *DB) CreateFeedItem(ctx context.Context, item entity.CreateFeedItem) (err error) {
	ctx, span := s.startSpan(ctx, "CreateFeedItem")
	defer func() { s.endSpan(span, err) }()

	query := `
		insert into notification_feed (id, user_id, category_id, trigger_key, data, metadata)
		values ($1, $2, $3, $4, $5, $6)`
	_, err = s.conn.Exec(ctx, query,
		item.ID, item.UserID, item.CategoryID, item.TriggerKey.String(), item.Data, item.Metadata,
	)
	return s.mapError(err)
}

// CreateFeedItemWithDeliveryLog writes the feed item and its queued email
// delivery log in one transaction and returns the log id.
func (s *DB) CreateFeedItemWithDeliveryLog(ctx context.Context, item entity.CreateFeedItem, dl entity.CreateDeliveryLog) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CreateFeedItemWithDeliveryLog")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	query := `
		insert into notification_feed (id, user_id, category_id, trigger_key, data, metadata)
		values ($1, $2, $3, $4, $5, $6)`
	if _, err = tx.Exec(ctx, query,
		item.ID, item.UserID, item.CategoryID, item.TriggerKey.String(), item.Data, item.Metadata,
	); err != nil {
		return 0, s.mapError(err)
	}

	var logID int64
	query = `
		insert into notification_delivery_logs (feed_item_id, channel, status)
		values ($1, $2, $3)
		returning id`
	if err = tx.QueryRow(ctx, query, dl.FeedItemID, dl.Channel, dl.Status).Scan(&logID); err != nil {
		return 0, s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, err
	}
	return logID, nil
}

func (s *DB) UpdateDeliveryLog(ctx context.Context, up entity.UpdateDeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateDeliveryLog")
	defer func() { s.endSpan(span, err) }()

	query := `
		update notification_delivery_logs
		set status = $2, provider_response = $3, next_retry_at = $4, updated_at = now()
		where id = $1`
	_, err = s.conn.Exec(ctx, query, up.ID, up.Status, up.ProviderResponse, up.NextRetryAt)
	return s.mapError(err)
}

func (s *DB) ListFeedItems(ctx context.Context, userID int64, status entity.FeedStatus, limit, offset int32) (_ []entity.FeedItem, err error) {
	ctx, span := s.startSpan(ctx, "ListFeedItems")
	defer func() { s.endSpan(span, err) }()

	query := `
		select id, category_id, trigger_key, data, metadata, read_at, created_at
		from notification_feed
		where user_id = $1 and deleted_at is null`
	switch status {
	case entity.FeedStatusUnread:
		query += ` and read_at is null`
	case entity.FeedStatusRead:
		query += ` and read_at is not null`
	}
	query += ` order by created_at desc limit $2 offset $3`

	rows, err := s.conn.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var items []entity.FeedItem
	for rows.Next() {
		var item entity.FeedItem
		var key string
		if err = rows.Scan(&item.ID, &item.CategoryID, &key, &item.Data, &item.Metadata, &item.ReadAt, &item.CreatedAt); err != nil {
			return nil, s.mapError(err)
		}
		item.TriggerKey = entity.TriggerKey(key)
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return items, nil
}

func (s *DB) CountUnreadFeedItems(ctx context.Context, userID int64) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "CountUnreadFeedItems")
	defer func() { s.endSpan(span, err) }()

	query := `
		select count(*) from notification_feed
		where user_id = $1 and read_at is null and deleted_at is null`
	var n int64
	if err = s.conn.QueryRow(ctx, query, userID).Scan(&n); err != nil {
		return 0, s.mapError(err)
	}
	return n, nil
}

func (s *DB) MarkFeedItemRead(ctx context.Context, userID, itemID int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "MarkFeedItemRead")
	defer func() { s.endSpan(span, err) }()

	query := `
		update notification_feed set read_at = now()
		where id = $1 and user_id = $2 and read_at is null and deleted_at is null`
	tag, err := s.conn.Exec(ctx, query, itemID, userID)
	if err != nil {
		return false, s.mapError(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *DB) MarkFeedItemsReadAll(ctx context.Context, userID int64) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "MarkFeedItemsReadAll")
	defer func() { s.endSpan(span, err) }()

	query := `
		update notification_feed set read_at = now()
		where user_id = $1 and read_at is null and deleted_at is null`
	tag, err := s.conn.Exec(ctx, query, userID)
	if err != nil {
		return 0, s.mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (s *DB) SoftDeleteFeedItem(ctx context.Context, userID, itemID int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "SoftDeleteFeedItem")
	defer func() { s.endSpan(span, err) }()

	query := `
		update notification_feed set deleted_at = now()
		where id = $1 and user_id = $2 and deleted_at is null`
	tag, err := s.conn.Exec(ctx, query, itemID, userID)
	if err != nil {
		return false, s.mapError(err)
	}
	return tag.RowsAffected() > 0, nil
}
