package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/mastry/crm-backend/internal/entity"
)

// Update applies a partial update under optimistic concurrency. A stale
// ExpectedVersion fails with CONFLICT and leaves the record untouched; an
// omitted one means last-write-wins (trusted internal flows).
func (s *LeadService) Update(ctx context.Context, leadID string, updates UpdateLeadInput, actorID string) (*entity.Lead, error) {
	return s.applyUpdate(ctx, leadID, updates, actorID, false)
}

func (s *LeadService) applyUpdate(ctx context.Context, leadID string, updates UpdateLeadInput, actorID string, isBulk bool) (*entity.Lead, error) {
	old, err := s.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, &DomainError{Code: CodeNotFound, Message: "Lead not found"}
	}

	if updates.ExpectedVersion != nil && old.Version != *updates.ExpectedVersion {
		return nil, conflictError(old.Version, *updates.ExpectedVersion)
	}

	statusChanged := updates.Status != nil && *updates.Status != old.Status
	if statusChanged {
		if err := validateStatusWrite(old, *updates.Status, updates); err != nil {
			return nil, err
		}
	}

	lead := old.Clone()
	applyFields(lead, updates)
	lead.Version = old.Version + 1
	lead.UpdatedAt = time.Now()

	tagsChanged := updates.Tags != nil && !equalTags(old.Tags, updates.Tags)
	paymentAdded := updates.PaymentDetails != nil && old.PaymentDetails == nil
	assignedChanged := updates.AssignedTo != nil && *updates.AssignedTo != old.AssignedTo

	if statusChanged {
		now := lead.UpdatedAt
		lead.StatusUpdatedAt = &now
	}

	if err := s.Leads.Update(ctx, lead, old.Version); err != nil {
		switch {
		case errors.Is(err, entity.ErrVersionConflict):
			stored := old.Version
			if fresh, ferr := s.Leads.FindByID(ctx, leadID); ferr == nil {
				stored = fresh.Version
			}
			return nil, conflictError(stored, old.Version)
		case errors.Is(err, entity.ErrLeadNotFound):
			return nil, &DomainError{Code: CodeNotFound, Message: "Lead not found"}
		}
		return nil, &TechnicalError{Code: "STORE_WRITE_FAILED", Message: err.Error()}
	}

	if statusChanged {
		data := map[string]any{"from": old.Status, "to": lead.Status}
		if isBulk {
			data["is_bulk"] = true
		}
		s.Activities.Log(ctx, lead.ID, entity.ActivityStatusChanged, data, actorID)
	}
	if tagsChanged {
		s.Activities.Log(ctx, lead.ID, entity.ActivityTagsUpdated, map[string]any{"tags": lead.Tags}, actorID)
	}
	if paymentAdded {
		s.Activities.Log(ctx, lead.ID, entity.ActivityPaymentAdded, map[string]any{"amount": lead.PaymentDetails.Amount}, actorID)
	}
	if assignedChanged {
		data := map[string]any{"from": old.AssignedTo, "to": lead.AssignedTo}
		if isBulk {
			data["is_bulk"] = true
		}
		s.Activities.Log(ctx, lead.ID, entity.ActivityAssignedToChanged, data, actorID)
	}

	flagged := false
	if statusChanged {
		s.Dispatcher.TriggerWebhooks(ctx, entity.EventStatusChanged, lead)
		flagged = true
	}
	if paymentAdded {
		s.Dispatcher.TriggerWebhooks(ctx, entity.EventPaymentAdded, lead)
		flagged = true
	}
	if assignedChanged {
		s.Dispatcher.TriggerWebhooks(ctx, entity.EventLeadAssigned, lead)
		flagged = true
	}
	if !flagged {
		s.Dispatcher.TriggerWebhooks(ctx, entity.EventLeadUpdated, lead)
	}

	return lead, nil
}

func applyFields(lead *entity.Lead, updates UpdateLeadInput) {
	nameChanged := false
	if updates.FirstName != nil {
		lead.FirstName = SanitizeName(*updates.FirstName)
		nameChanged = true
	}
	if updates.LastName != nil {
		lead.LastName = SanitizeName(*updates.LastName)
		nameChanged = true
	}
	if nameChanged {
		lead.FullName = lead.FirstName + " " + lead.LastName
	}
	if updates.Email != nil {
		lead.Email = *updates.Email
	}
	if updates.Status != nil {
		lead.Status = *updates.Status
	}
	if updates.RejectionReason != nil {
		lead.RejectionReason = *updates.RejectionReason
	}
	if updates.AssignedTo != nil {
		lead.AssignedTo = *updates.AssignedTo
	}
	if updates.Source != nil {
		lead.Source = *updates.Source
	}
	if updates.Tags != nil {
		lead.Tags = append([]string{}, updates.Tags...)
	}
	if updates.CustomFields != nil {
		lead.CustomFields = updates.CustomFields
	}
	if updates.SourceDetails != nil {
		lead.SourceDetails = updates.SourceDetails
	}
	if updates.PaymentDetails != nil {
		lead.PaymentDetails = updates.PaymentDetails
	}
}

// equalTags compares by value, order-sensitive (insertion order is part of
// the displayed state).
func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
