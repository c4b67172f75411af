package db

import (
	"context"

	"github.com/aruna-labs/identra/internal/notification/entity"
)

func (s *DB) GetTemplate(ctx context.Context, tk entity.TriggerKey, ch entity.Channel) (_ *entity.Template, err error) {
	ctx, span := s.startSpan(ctx, "GetTemplate")
	defer func() { s.endSpan(span, err) }()

	query := `
		select id, trigger_key, category_id, channel, subject, body
		from notification_templates
		where trigger_key = $1 and channel = $2`

	var tpl entity.Template
	var key string
	err = s.conn.QueryRow(ctx, query, tk.String(), ch).Scan(
		&tpl.ID, &key, &tpl.CategoryID, &tpl.Channel, &tpl.Subject, &tpl.Body,
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	tpl.TriggerKey = entity.TriggerKey(key)
	return &tpl, nil
}

func (s *DB) ListCategories(ctx context.Context) (_ []entity.Category, err error) {
	ctx, span := s.startSpan(ctx, "ListCategories")
	defer func() { s.endSpan(span, err) }()

	query := `select id, name, description, is_mandatory from notification_categories order by id`
	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	var items []entity.Category
	for rows.Next() {
		var c entity.Category
		if err = rows.Scan(&c.ID, &c.Name, &c.Description, &c.IsMandatory); err != nil {
			return nil, s.mapError(err)
		}
		items = append(items, c)
	}
	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}
	return items, nil
}
