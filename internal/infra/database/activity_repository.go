package database

import (
	"context"
	"database/sql"

	"github.com/mastry/crm-backend/internal/entity"
)

// ActivityRepository is the append-only audit table. No update or delete
// statements exist on purpose.
type ActivityRepository struct {
	DB *sql.DB
}

func (r *ActivityRepository) Insert(ctx context.Context, a *entity.Activity) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO activities (id, lead_id, event_type, event_data, performed_by, ts)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.LeadID, a.EventType, toJSON(a.EventData), a.PerformedBy, a.Timestamp)
	return err
}

func (r *ActivityRepository) ListByLead(ctx context.Context, leadID string) ([]*entity.Activity, error) {
	return r.query(ctx, `
		SELECT id, lead_id, event_type, event_data, performed_by, ts
		FROM activities WHERE lead_id = $1 ORDER BY ts DESC
	`, leadID)
}

func (r *ActivityRepository) ListByType(ctx context.Context, eventType string) ([]*entity.Activity, error) {
	return r.query(ctx, `
		SELECT id, lead_id, event_type, event_data, performed_by, ts
		FROM activities WHERE event_type = $1 ORDER BY ts DESC
	`, eventType)
}

func (r *ActivityRepository) List(ctx context.Context) ([]*entity.Activity, error) {
	return r.query(ctx, `
		SELECT id, lead_id, event_type, event_data, performed_by, ts
		FROM activities ORDER BY ts DESC
	`)
}

func (r *ActivityRepository) query(ctx context.Context, query string, args ...any) ([]*entity.Activity, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*entity.Activity{}
	for rows.Next() {
		var (
			a    entity.Activity
			data []byte
		)
		if err := rows.Scan(&a.ID, &a.LeadID, &a.EventType, &data, &a.PerformedBy, &a.Timestamp); err != nil {
			return nil, err
		}
		if err := fromJSON(data, &a.EventData); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
