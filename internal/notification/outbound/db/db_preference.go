package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/aruna-labs/identra/internal/notification/entity"
)

func (s *DB) ListPreferences(ctx context.Context, userID int64) (_ []entity.Preference, err error) {
	ctx, span := s.startSpan(ctx, "ListPreferences")
	defer func() { s.endSpan(span, err) }()

	query := `
		select category_id, channel, is_enabled
		from notification_preferences
		where user_id = $1`
	rows, err := s.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var items []entity.Preference
	for rows.Next() {
		var p entity.Preference
		if err = rows.Scan(&p.CategoryID, &p.Channel, &p.IsEnabled); err != nil {
			return nil, s.mapError(err)
		}
		items = append(items, p)
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return items, nil
}

func (s *DB) UpsertPreferences(ctx context.Context, userID int64, prefs []entity.Preference) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertPreferences")
	defer func() { s.endSpan(span, err) }()

	if len(prefs) == 0 {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return s.mapError(err)
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	query := `
		insert into notification_preferences (user_id, category_id, channel, is_enabled)
		values ($1, $2, $3, $4)
		on conflict (user_id, category_id, channel)
		do update set is_enabled = excluded.is_enabled, updated_at = now()`
	for _, p := range prefs {
		if _, err = tx.Exec(ctx, query, userID, p.CategoryID, p.Channel, p.IsEnabled); err != nil {
			return s.mapError(err)
		}
	}

	return s.mapError(tx.Commit(ctx))
}

// ChannelEnabled reports whether the user accepts notices for the category
// on the channel. Absence of a preference row means enabled.
func (s *DB) ChannelEnabled(ctx context.Context, userID, categoryID int64, ch entity.Channel) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ChannelEnabled")
	defer func() { s.endSpan(span, err) }()

	query := `
		select is_enabled from notification_preferences
		where user_id = $1 and category_id = $2 and channel = $3`
	var enabled bool
	err = s.conn.QueryRow(ctx, query, userID, categoryID, ch).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, s.mapError(err)
	}
	return enabled, nil
}
