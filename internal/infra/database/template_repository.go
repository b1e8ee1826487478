package database

import (
	"context"
	"database/sql"

	"github.com/mastry/crm-backend/internal/entity"
)

type TemplateRepository struct {
	DB *sql.DB
}

func (r *TemplateRepository) ListEmailTemplates(ctx context.Context) ([]*entity.EmailTemplate, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, status_trigger, subject, body, is_active
		FROM email_templates ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*entity.EmailTemplate{}
	for rows.Next() {
		var t entity.EmailTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.StatusTrigger, &t.Subject, &t.Body, &t.IsActive); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *TemplateRepository) SaveEmailTemplate(ctx context.Context, t *entity.EmailTemplate) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO email_templates (id, name, status_trigger, subject, body, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status_trigger = EXCLUDED.status_trigger,
			subject = EXCLUDED.subject,
			body = EXCLUDED.body,
			is_active = EXCLUDED.is_active
	`, t.ID, t.Name, t.StatusTrigger, t.Subject, t.Body, t.IsActive)
	return err
}

func (r *TemplateRepository) ListWhatsAppTemplates(ctx context.Context) ([]*entity.WhatsAppTemplate, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, status_trigger, template_id, template_preview, variable_mapping, is_active
		FROM whatsapp_templates ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*entity.WhatsAppTemplate{}
	for rows.Next() {
		var (
			t       entity.WhatsAppTemplate
			mapping []byte
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.StatusTrigger, &t.TemplateID, &t.TemplatePreview, &mapping, &t.IsActive); err != nil {
			return nil, err
		}
		if err := fromJSON(mapping, &t.VariableMapping); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *TemplateRepository) SaveWhatsAppTemplate(ctx context.Context, t *entity.WhatsAppTemplate) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO whatsapp_templates (id, name, status_trigger, template_id, template_preview, variable_mapping, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status_trigger = EXCLUDED.status_trigger,
			template_id = EXCLUDED.template_id,
			template_preview = EXCLUDED.template_preview,
			variable_mapping = EXCLUDED.variable_mapping,
			is_active = EXCLUDED.is_active
	`, t.ID, t.Name, t.StatusTrigger, t.TemplateID, t.TemplatePreview, toJSON(t.VariableMapping), t.IsActive)
	return err
}

func (r *TemplateRepository) DeleteWhatsAppTemplate(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM whatsapp_templates WHERE id = $1`, id)
	return err
}
