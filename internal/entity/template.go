package entity

import "context"

type EmailTemplate struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	StatusTrigger string `json:"status_trigger"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
	IsActive      bool   `json:"is_active"`
}

type WhatsAppTemplate struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	StatusTrigger   string            `json:"status_trigger"`
	TemplateID      string            `json:"template_id"`
	TemplatePreview string            `json:"template_preview"`
	VariableMapping map[string]string `json:"variable_mapping"`
	IsActive        bool              `json:"is_active"`
}

type TemplateRepository interface {
	ListEmailTemplates(ctx context.Context) ([]*EmailTemplate, error)
	SaveEmailTemplate(ctx context.Context, t *EmailTemplate) error
	ListWhatsAppTemplates(ctx context.Context) ([]*WhatsAppTemplate, error)
	SaveWhatsAppTemplate(ctx context.Context, t *WhatsAppTemplate) error
	DeleteWhatsAppTemplate(ctx context.Context, id string) error
}
