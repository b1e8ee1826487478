package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/mastry/crm-backend/internal/entity"
)

// LeadRepository is the Postgres-backed lead store. The structured columns
// (tags, source details, payment, merged identities) live in JSONB.
type LeadRepository struct {
	DB *sql.DB
}

const leadColumns = `
	id, version, first_name, last_name, full_name, email,
	country_code, phone_raw, phone_normalized,
	status, status_updated_at, rejection_reason,
	source, source_details, assigned_to, tags, custom_fields,
	payment_details, merged_identities,
	created_at, created_by, updated_at, deleted_at, deleted_by`

func (r *LeadRepository) Insert(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`
	_, err := r.DB.ExecContext(ctx, query,
		lead.ID, lead.Version, lead.FirstName, lead.LastName, lead.FullName, lead.Email,
		lead.CountryCode, lead.PhoneRaw, lead.PhoneNormalized,
		lead.Status, lead.StatusUpdatedAt, lead.RejectionReason,
		lead.Source, toJSON(lead.SourceDetails), lead.AssignedTo, toJSON(lead.Tags), toJSON(lead.CustomFields),
		toJSON(lead.PaymentDetails), toJSON(lead.MergedIdentities),
		lead.CreatedAt, lead.CreatedBy, lead.UpdatedAt, lead.DeletedAt, lead.DeletedBy,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return entity.ErrPhoneAlreadyExists
	}
	return err
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	return scanLead(row)
}

func (r *LeadRepository) FindByNormalizedPhone(ctx context.Context, phone string) (*entity.Lead, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE phone_normalized = $1 AND deleted_at IS NULL`, phone)
	return scanLead(row)
}

func (r *LeadRepository) Update(ctx context.Context, lead *entity.Lead, expectedVersion int) error {
	query := `
		UPDATE leads SET
			version = $2, first_name = $3, last_name = $4, full_name = $5, email = $6,
			country_code = $7, phone_raw = $8, phone_normalized = $9,
			status = $10, status_updated_at = $11, rejection_reason = $12,
			source = $13, source_details = $14, assigned_to = $15, tags = $16, custom_fields = $17,
			payment_details = $18, merged_identities = $19,
			updated_at = $20, deleted_at = $21, deleted_by = $22
		WHERE id = $1 AND version = $23
	`
	res, err := r.DB.ExecContext(ctx, query,
		lead.ID, lead.Version, lead.FirstName, lead.LastName, lead.FullName, lead.Email,
		lead.CountryCode, lead.PhoneRaw, lead.PhoneNormalized,
		lead.Status, lead.StatusUpdatedAt, lead.RejectionReason,
		lead.Source, toJSON(lead.SourceDetails), lead.AssignedTo, toJSON(lead.Tags), toJSON(lead.CustomFields),
		toJSON(lead.PaymentDetails), toJSON(lead.MergedIdentities),
		lead.UpdatedAt, lead.DeletedAt, lead.DeletedBy,
		expectedVersion,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists bool
		if err := r.DB.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`, lead.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return entity.ErrLeadNotFound
		}
		return entity.ErrVersionConflict
	}
	return nil
}

func (r *LeadRepository) List(ctx context.Context) ([]*entity.Lead, error) {
	return r.query(ctx, `SELECT `+leadColumns+` FROM leads WHERE deleted_at IS NULL ORDER BY created_at`)
}

func (r *LeadRepository) ListDeleted(ctx context.Context) ([]*entity.Lead, error) {
	return r.query(ctx, `SELECT `+leadColumns+` FROM leads WHERE deleted_at IS NOT NULL ORDER BY created_at`)
}

func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepository) query(ctx context.Context, query string) ([]*entity.Lead, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []*entity.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		lead            entity.Lead
		statusUpdatedAt sql.NullTime
		deletedAt       sql.NullTime
		sourceDetails   []byte
		tags            []byte
		customFields    []byte
		payment         []byte
		merged          []byte
	)

	err := row.Scan(
		&lead.ID, &lead.Version, &lead.FirstName, &lead.LastName, &lead.FullName, &lead.Email,
		&lead.CountryCode, &lead.PhoneRaw, &lead.PhoneNormalized,
		&lead.Status, &statusUpdatedAt, &lead.RejectionReason,
		&lead.Source, &sourceDetails, &lead.AssignedTo, &tags, &customFields,
		&payment, &merged,
		&lead.CreatedAt, &lead.CreatedBy, &lead.UpdatedAt, &deletedAt, &lead.DeletedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}

	lead.StatusUpdatedAt = nullTimePtr(statusUpdatedAt)
	lead.DeletedAt = nullTimePtr(deletedAt)
	if err := fromJSON(sourceDetails, &lead.SourceDetails); err != nil {
		return nil, err
	}
	if err := fromJSON(tags, &lead.Tags); err != nil {
		return nil, err
	}
	if err := fromJSON(customFields, &lead.CustomFields); err != nil {
		return nil, err
	}
	if err := fromJSON(payment, &lead.PaymentDetails); err != nil {
		return nil, err
	}
	if err := fromJSON(merged, &lead.MergedIdentities); err != nil {
		return nil, err
	}
	if lead.Tags == nil {
		lead.Tags = []string{}
	}
	return &lead, nil
}

func toJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

func fromJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	ts := t.Time
	return &ts
}
