package database

import (
	"context"
	"database/sql"

	"github.com/mastry/crm-backend/internal/usecase"
)

// SnapshotStore dumps and replaces the Postgres state for backup and
// restore. Restore runs in one transaction so a bad upload never leaves
// the database half-replaced.
type SnapshotStore struct {
	DB *sql.DB
}

func (s *SnapshotStore) Snapshot(ctx context.Context) (*usecase.Snapshot, error) {
	leadRepo := &LeadRepository{DB: s.DB}
	userRepo := &UserRepository{DB: s.DB}
	activityRepo := &ActivityRepository{DB: s.DB}
	tagRepo := &TagRepository{DB: s.DB}
	webhookRepo := &WebhookRepository{DB: s.DB}
	rotationRepo := &RotationRepository{DB: s.DB}

	snap := &usecase.Snapshot{}

	active, err := leadRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	trashed, err := leadRepo.ListDeleted(ctx)
	if err != nil {
		return nil, err
	}
	snap.Leads = append(active, trashed...)

	if snap.Users, err = userRepo.List(ctx); err != nil {
		return nil, err
	}
	if snap.Activities, err = activityRepo.List(ctx); err != nil {
		return nil, err
	}
	if snap.Tags, err = tagRepo.List(ctx); err != nil {
		return nil, err
	}
	if snap.Webhooks, err = webhookRepo.List(ctx); err != nil {
		return nil, err
	}
	if snap.Rotation, err = rotationRepo.Get(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *SnapshotStore) RestoreSnapshot(ctx context.Context, snap *usecase.Snapshot) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"activities", "leads", "users", "webhooks"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return err
		}
	}

	for _, lead := range snap.Leads {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO leads (`+leadColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
				$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		`,
			lead.ID, lead.Version, lead.FirstName, lead.LastName, lead.FullName, lead.Email,
			lead.CountryCode, lead.PhoneRaw, lead.PhoneNormalized,
			lead.Status, lead.StatusUpdatedAt, lead.RejectionReason,
			lead.Source, toJSON(lead.SourceDetails), lead.AssignedTo, toJSON(lead.Tags), toJSON(lead.CustomFields),
			toJSON(lead.PaymentDetails), toJSON(lead.MergedIdentities),
			lead.CreatedAt, lead.CreatedBy, lead.UpdatedAt, lead.DeletedAt, lead.DeletedBy,
		); err != nil {
			return err
		}
	}

	for _, u := range snap.Users {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, email, full_name, role, is_active, created_at, last_login)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, u.ID, u.Email, u.FullName, u.Role, u.IsActive, u.CreatedAt, u.LastLogin); err != nil {
			return err
		}
	}

	for _, a := range snap.Activities {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO activities (id, lead_id, event_type, event_data, performed_by, ts)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, a.ID, a.LeadID, a.EventType, toJSON(a.EventData), a.PerformedBy, a.Timestamp); err != nil {
			return err
		}
	}

	for _, wh := range snap.Webhooks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO webhooks (id, name, webhook_url, triggers, is_active, last_triggered)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, wh.ID, wh.Name, wh.WebhookURL, toJSON(wh.Triggers), wh.IsActive, wh.LastTriggered); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tag_registry (id, tags) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET tags = EXCLUDED.tags
	`, toJSON(snap.Tags)); err != nil {
		return err
	}

	if snap.Rotation != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO assignment_rotation (id, last_assigned_user_id, eligible_user_ids, updated_at)
			VALUES (1, $1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET
				last_assigned_user_id = EXCLUDED.last_assigned_user_id,
				eligible_user_ids = EXCLUDED.eligible_user_ids,
				updated_at = EXCLUDED.updated_at
		`, snap.Rotation.LastAssignedUserID, toJSON(snap.Rotation.EligibleUserIDs), snap.Rotation.UpdatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}
