package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mastry/crm-backend/internal/entity"
)

// TagRepository stores the tag vocabulary as the single row of
// tag_registry.
type TagRepository struct {
	DB *sql.DB
}

func (r *TagRepository) List(ctx context.Context) ([]string, error) {
	var raw []byte
	err := r.DB.QueryRowContext(ctx, `SELECT tags FROM tag_registry WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	tags := []string{}
	if err := fromJSON(raw, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *TagRepository) Save(ctx context.Context, tags []string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO tag_registry (id, tags) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET tags = EXCLUDED.tags
	`, toJSON(tags))
	return err
}

// WebhookRepository stores delivery subscriptions.
type WebhookRepository struct {
	DB *sql.DB
}

func (r *WebhookRepository) List(ctx context.Context) ([]*entity.WebhookConfig, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, webhook_url, triggers, is_active, last_triggered
		FROM webhooks ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*entity.WebhookConfig{}
	for rows.Next() {
		var (
			w             entity.WebhookConfig
			triggers      []byte
			lastTriggered sql.NullTime
		)
		if err := rows.Scan(&w.ID, &w.Name, &w.WebhookURL, &triggers, &w.IsActive, &lastTriggered); err != nil {
			return nil, err
		}
		if err := fromJSON(triggers, &w.Triggers); err != nil {
			return nil, err
		}
		w.LastTriggered = nullTimePtr(lastTriggered)
		out = append(out, &w)
	}
	return out, rows.Err()
}

func (r *WebhookRepository) Save(ctx context.Context, w *entity.WebhookConfig) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO webhooks (id, name, webhook_url, triggers, is_active, last_triggered)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			webhook_url = EXCLUDED.webhook_url,
			triggers = EXCLUDED.triggers,
			is_active = EXCLUDED.is_active,
			last_triggered = EXCLUDED.last_triggered
	`, w.ID, w.Name, w.WebhookURL, toJSON(w.Triggers), w.IsActive, w.LastTriggered)
	return err
}

func (r *WebhookRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM webhooks WHERE id = $1`, id)
	return err
}
