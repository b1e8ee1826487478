package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mastry/crm-backend/internal/entity"
	"github.com/mastry/crm-backend/internal/phone"
)

// LeadService is the lead-lifecycle engine: creation with dedup and
// rotation assignment, optimistic-versioned updates, merge, soft delete /
// restore / purge, and the bulk variants. Every mutation appends to the
// activity log and notifies the automation dispatcher.
type LeadService struct {
	Leads      entity.LeadRepository
	Activities *ActivityLog
	Rotator    *Rotator
	Dispatcher *AutomationDispatcher
}

func NewLeadService(
	leads entity.LeadRepository,
	activities *ActivityLog,
	rotator *Rotator,
	dispatcher *AutomationDispatcher,
) *LeadService {
	return &LeadService{
		Leads:      leads,
		Activities: activities,
		Rotator:    rotator,
		Dispatcher: dispatcher,
	}
}

// CheckDuplicate normalizes the input and looks for a non-deleted lead
// holding the same canonical phone.
func (s *LeadService) CheckDuplicate(ctx context.Context, rawPhone string) (DuplicateCheck, error) {
	normalized := phone.Normalize(rawPhone, "")
	lead, err := s.Leads.FindByNormalizedPhone(ctx, normalized)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return DuplicateCheck{Exists: false, NormalizedPhone: normalized}, nil
		}
		return DuplicateCheck{}, &TechnicalError{Code: "STORE_READ_FAILED", Message: err.Error()}
	}
	return DuplicateCheck{Exists: true, Lead: lead, NormalizedPhone: normalized}, nil
}

func (s *LeadService) Create(ctx context.Context, input CreateLeadInput, actorID string) (*entity.Lead, error) {
	if verrs := ValidateCreateLeadInput(input); len(verrs) > 0 {
		msg := "validation failed: "
		for i, e := range verrs {
			if i > 0 {
				msg += ", "
			}
			msg += e.Field + " (" + e.Message + ")"
		}
		return nil, &DomainError{Code: CodeValidation, Message: msg}
	}

	normalized := phone.Normalize(input.PhoneRaw, input.CountryCode)
	if _, err := s.Leads.FindByNormalizedPhone(ctx, normalized); err == nil {
		return nil, &DomainError{Code: CodeDuplicateLead, Message: "duplicate lead detected"}
	} else if !errors.Is(err, entity.ErrLeadNotFound) {
		return nil, &TechnicalError{Code: "STORE_READ_FAILED", Message: err.Error()}
	}

	assignedTo, err := s.Rotator.NextAgent(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: "ROTATION_FAILED", Message: err.Error()}
	}

	countryCode := input.CountryCode
	if countryCode == "" {
		countryCode = phone.DefaultCountryCode
	}
	source := input.Source
	if source == "" {
		source = "Manual Entry"
	}

	now := time.Now()
	lead := &entity.Lead{
		ID:              uuid.New().String(),
		Version:         1,
		FirstName:       SanitizeName(input.FirstName),
		LastName:        SanitizeName(input.LastName),
		Email:           input.Email,
		CountryCode:     countryCode,
		PhoneRaw:        input.PhoneRaw,
		PhoneNormalized: normalized,
		Status:          entity.StatusNewLead,
		Source:          source,
		SourceDetails:   enrichSourceDetails(source, input.SourceDetails),
		AssignedTo:      assignedTo,
		Tags:            append([]string{}, input.Tags...),
		CustomFields:    input.CustomFields,
		CreatedAt:       now,
		CreatedBy:       actorID,
		UpdatedAt:       now,
	}
	lead.FullName = lead.FirstName + " " + lead.LastName

	if err := s.Leads.Insert(ctx, lead); err != nil {
		if errors.Is(err, entity.ErrPhoneAlreadyExists) {
			return nil, &DomainError{Code: CodeDuplicateLead, Message: "duplicate lead detected"}
		}
		return nil, &TechnicalError{Code: "STORE_WRITE_FAILED", Message: err.Error()}
	}

	s.Activities.Log(ctx, lead.ID, entity.ActivityLeadCreated, map[string]any{"source": lead.Source}, actorID)
	s.Dispatcher.TriggerWebhooks(ctx, entity.EventLeadCreated, lead)

	return lead, nil
}

// enrichSourceDetails injects the default external-system snapshot for
// recognized sources when the caller did not supply one.
func enrichSourceDetails(source string, provided map[string]map[string]any) map[string]map[string]any {
	if len(provided) > 0 {
		return provided
	}
	switch source {
	case "Meta Form":
		return map[string]map[string]any{
			"Meta Lead Form": {
				"ad_id":   "123456",
				"form_id": "98765",
			},
		}
	case "Deftform":
		return map[string]map[string]any{
			"Deftform Submission": {
				"submitted_at": time.Now().Format(time.RFC3339),
				"referrer":     "LinkedIn",
			},
		}
	}
	return provided
}

func (s *LeadService) Get(ctx context.Context, id string) (*entity.Lead, error) {
	lead, err := s.Leads.FindByID(ctx, id)
	if err != nil {
		return nil, &DomainError{Code: CodeNotFound, Message: "Lead not found"}
	}
	return lead, nil
}

func (s *LeadService) List(ctx context.Context) ([]*entity.Lead, error) {
	return s.Leads.List(ctx)
}

func (s *LeadService) ListTrash(ctx context.Context) ([]*entity.Lead, error) {
	return s.Leads.ListDeleted(ctx)
}

func conflictError(stored, expected int) *DomainError {
	return &DomainError{
		Code: CodeConflict,
		Message: fmt.Sprintf(
			"Conflict detected! This lead was updated by someone else (now v%d, you had v%d). Please reload.",
			stored, expected,
		),
	}
}
