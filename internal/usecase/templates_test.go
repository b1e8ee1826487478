package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mastry/crm-backend/internal/entity"
	"github.com/mastry/crm-backend/internal/usecase"
)

func TestRenderTemplateSubstitutesLeadFields(t *testing.T) {
	lead := &entity.Lead{
		FirstName:       "Priya",
		LastName:        "Sharma",
		FullName:        "Priya Sharma",
		Email:           "priya@example.com",
		PhoneNormalized: "+919876543210",
		Status:          entity.StatusEligible,
		Source:          "Meta Form",
	}

	got := usecase.RenderTemplate(
		"Hi {{first_name}}, your application ({{status}}) is with {{assigned_to}}.",
		lead, "Alice",
	)
	assert.Equal(t, "Hi Priya, your application (eligible) is with Alice.", got)
}

func TestRenderTemplateLeavesUnknownPlaceholders(t *testing.T) {
	lead := &entity.Lead{FirstName: "Priya"}

	got := usecase.RenderTemplate("Hi {{first_name}}, code {{discount_code}}", lead, "")
	assert.Equal(t, "Hi Priya, code {{discount_code}}", got)
}

func TestBuildPaymentLink(t *testing.T) {
	lead := &entity.Lead{
		FullName:        "Priya Sharma",
		Email:           "priya@example.com",
		CountryCode:     "+91",
		PhoneNormalized: "+919876543210",
	}

	link := usecase.BuildPaymentLink("svc-42", "EARLYBIRD", lead)
	assert.Contains(t, link, "service=svc-42")
	assert.Contains(t, link, "coupon=EARLYBIRD")
	assert.Contains(t, link, "phone=9876543210")
	assert.NotContains(t, link, "phone=%2B91")
}
