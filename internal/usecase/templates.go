package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mastry/crm-backend/internal/entity"
)

// TemplateService stores the message templates used by status-triggered
// automations and renders them against a lead.
type TemplateService struct {
	Templates entity.TemplateRepository
	Users     entity.UserRepository
}

func NewTemplateService(templates entity.TemplateRepository, users entity.UserRepository) *TemplateService {
	return &TemplateService{Templates: templates, Users: users}
}

func (s *TemplateService) ListEmail(ctx context.Context) ([]*entity.EmailTemplate, error) {
	return s.Templates.ListEmailTemplates(ctx)
}

func (s *TemplateService) SaveEmail(ctx context.Context, t *entity.EmailTemplate) error {
	return s.Templates.SaveEmailTemplate(ctx, t)
}

func (s *TemplateService) ListWhatsApp(ctx context.Context) ([]*entity.WhatsAppTemplate, error) {
	return s.Templates.ListWhatsAppTemplates(ctx)
}

func (s *TemplateService) SaveWhatsApp(ctx context.Context, t *entity.WhatsAppTemplate) error {
	return s.Templates.SaveWhatsAppTemplate(ctx, t)
}

func (s *TemplateService) DeleteWhatsApp(ctx context.Context, id string) error {
	return s.Templates.DeleteWhatsAppTemplate(ctx, id)
}

// Render substitutes {{placeholder}} variables with lead fields. Unknown
// placeholders are left in place so template mistakes stay visible.
func (s *TemplateService) Render(ctx context.Context, text string, lead *entity.Lead) string {
	assignedName := ""
	if lead.AssignedTo != "" && s.Users != nil {
		if u, err := s.Users.FindByID(ctx, lead.AssignedTo); err == nil {
			assignedName = u.FullName
		}
	}
	return RenderTemplate(text, lead, assignedName)
}

// RenderTemplate is the pure substitution core.
func RenderTemplate(text string, lead *entity.Lead, assignedToName string) string {
	replacements := map[string]string{
		"{{first_name}}":  lead.FirstName,
		"{{last_name}}":   lead.LastName,
		"{{full_name}}":   lead.FullName,
		"{{email}}":       lead.Email,
		"{{phone}}":       lead.PhoneNormalized,
		"{{status}}":      lead.Status,
		"{{source}}":      lead.Source,
		"{{assigned_to}}": assignedToName,
	}
	for placeholder, value := range replacements {
		text = strings.ReplaceAll(text, placeholder, value)
	}
	return text
}

// BuildPaymentLink produces a prefilled checkout URL for the lead. The
// phone parameter carries the national number only.
func BuildPaymentLink(serviceID, coupon string, lead *entity.Lead) string {
	national := strings.TrimPrefix(lead.PhoneNormalized, lead.CountryCode)

	q := url.Values{}
	q.Set("service", serviceID)
	q.Set("name", lead.FullName)
	q.Set("email", lead.Email)
	q.Set("phone", national)
	if coupon != "" {
		q.Set("coupon", coupon)
	}
	return fmt.Sprintf("https://checkout.example.com/pay?%s", q.Encode())
}
