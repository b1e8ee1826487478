package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/mastry/crm-backend/internal/entity"
)

// SoftDelete moves the leads to trash. The records stay addressable and
// restorable; they just stop participating in listings and dedup. Each id
// is handled independently — one failure never blocks the rest.
func (s *LeadService) SoftDelete(ctx context.Context, leadIDs []string, actorID string) []BulkResult {
	isBulk := len(leadIDs) > 1
	results := make([]BulkResult, 0, len(leadIDs))

	for _, id := range leadIDs {
		results = append(results, BulkResult{LeadID: id, Error: s.softDeleteOne(ctx, id, actorID, isBulk)})
	}
	return results
}

func (s *LeadService) softDeleteOne(ctx context.Context, leadID, actorID string, isBulk bool) string {
	old, err := s.Leads.FindByID(ctx, leadID)
	if err != nil {
		return "Lead not found"
	}
	if old.IsDeleted() {
		return ""
	}

	lead := old.Clone()
	now := time.Now()
	lead.DeletedAt = &now
	lead.DeletedBy = actorID

	if err := s.Leads.Update(ctx, lead, old.Version); err != nil {
		return err.Error()
	}

	data := map[string]any{}
	if isBulk {
		data["is_bulk"] = true
	}
	s.Activities.Log(ctx, leadID, entity.ActivityLeadDeleted, data, actorID)
	s.Dispatcher.TriggerWebhooks(ctx, entity.EventLeadDeleted, lead)
	return ""
}

// Restore brings a trashed lead back. Everything is as before the delete
// except the version, which is strictly greater.
func (s *LeadService) Restore(ctx context.Context, leadID, actorID string) (*entity.Lead, error) {
	old, err := s.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, &DomainError{Code: CodeNotFound, Message: "Lead not found"}
	}

	lead := old.Clone()
	lead.DeletedAt = nil
	lead.DeletedBy = ""
	lead.Version = old.Version + 1
	lead.UpdatedAt = time.Now()

	if err := s.Leads.Update(ctx, lead, old.Version); err != nil {
		return nil, &TechnicalError{Code: "STORE_WRITE_FAILED", Message: err.Error()}
	}

	s.Activities.Log(ctx, leadID, entity.ActivityLeadRestored, map[string]any{}, actorID)
	s.Dispatcher.TriggerWebhooks(ctx, entity.EventLeadUpdated, lead)
	return lead, nil
}

// Purge removes the record permanently. Activities for the lead are
// retained for audit continuity.
func (s *LeadService) Purge(ctx context.Context, leadID string) error {
	if err := s.Leads.Delete(ctx, leadID); err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return &DomainError{Code: CodeNotFound, Message: "Lead not found"}
		}
		return &TechnicalError{Code: "STORE_WRITE_FAILED", Message: err.Error()}
	}
	return nil
}

// EmptyTrash purges every soft-deleted lead.
func (s *LeadService) EmptyTrash(ctx context.Context) (int, error) {
	trashed, err := s.Leads.ListDeleted(ctx)
	if err != nil {
		return 0, &TechnicalError{Code: "STORE_READ_FAILED", Message: err.Error()}
	}
	purged := 0
	for _, lead := range trashed {
		if err := s.Leads.Delete(ctx, lead.ID); err == nil {
			purged++
		}
	}
	return purged, nil
}
