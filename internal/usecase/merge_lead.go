package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mastry/crm-backend/internal/entity"
)

// Merge folds a duplicate submission into an existing lead. Policy: fill
// gaps, don't clobber — a populated first/last name or email is never
// overwritten; the incoming identity is preserved in merged_identities
// instead. Safe to replay with the same payload.
func (s *LeadService) Merge(ctx context.Context, existingID string, input MergeLeadInput, actorID string) (*entity.Lead, error) {
	old, err := s.Leads.FindByID(ctx, existingID)
	if err != nil {
		return nil, &DomainError{Code: CodeNotFound, Message: "Lead not found"}
	}

	lead := old.Clone()

	nameFilled := false
	if lead.FirstName == "" && input.FirstName != "" {
		lead.FirstName = SanitizeName(input.FirstName)
		nameFilled = true
	}
	if lead.LastName == "" && input.LastName != "" {
		lead.LastName = SanitizeName(input.LastName)
		nameFilled = true
	}
	if nameFilled {
		lead.FullName = strings.TrimSpace(lead.FirstName + " " + lead.LastName)
	}
	if lead.Email == "" && input.Email != "" {
		lead.Email = input.Email
	}

	if lead.MergedIdentities == nil {
		lead.MergedIdentities = &entity.MergedIdentities{Emails: []string{}, Names: []string{}}
	}
	if input.Email != "" && input.Email != old.Email && !contains(lead.MergedIdentities.Emails, input.Email) {
		lead.MergedIdentities.Emails = append(lead.MergedIdentities.Emails, input.Email)
	}
	if input.FirstName != "" && input.LastName != "" {
		incomingName := input.FirstName + " " + input.LastName
		if incomingName != old.FullName && !contains(lead.MergedIdentities.Names, incomingName) {
			lead.MergedIdentities.Names = append(lead.MergedIdentities.Names, incomingName)
		}
	}

	for _, t := range input.Tags {
		if !lead.HasTag(t) {
			lead.Tags = append(lead.Tags, t)
		}
	}

	if len(input.SourceDetails) > 0 {
		if lead.SourceDetails == nil {
			lead.SourceDetails = map[string]map[string]any{}
		}
		for k, v := range input.SourceDetails {
			lead.SourceDetails[k] = v
		}
	}

	lead.Version = old.Version + 1
	lead.UpdatedAt = time.Now()

	if err := s.Leads.Update(ctx, lead, old.Version); err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, &DomainError{Code: CodeNotFound, Message: "Lead not found"}
		}
		return nil, &TechnicalError{Code: "STORE_WRITE_FAILED", Message: err.Error()}
	}

	// The raw incoming payload rides along for the audit trail.
	s.Activities.Log(ctx, lead.ID, entity.ActivityLeadMerged, map[string]any{
		"merged_data": map[string]any{
			"first_name":     input.FirstName,
			"last_name":      input.LastName,
			"email":          input.Email,
			"tags":           input.Tags,
			"source_details": input.SourceDetails,
		},
	}, actorID)
	s.Dispatcher.TriggerWebhooks(ctx, entity.EventLeadUpdated, lead)

	return lead, nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
