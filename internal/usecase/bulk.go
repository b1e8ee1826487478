package usecase

import (
	"context"
	"time"

	"github.com/mastry/crm-backend/internal/entity"
)

// Bulk operations apply the per-record rules of Update to each id and
// report per-record outcomes. The batch is not transactional: records that
// fail (missing, conflicting) are reported individually while the rest
// proceed.

func (s *LeadService) BulkUpdate(ctx context.Context, leadIDs []string, updates UpdateLeadInput, actorID string) []BulkResult {
	results := make([]BulkResult, 0, len(leadIDs))
	for _, id := range leadIDs {
		if _, err := s.applyUpdate(ctx, id, updates, actorID, true); err != nil {
			results = append(results, BulkResult{LeadID: id, Error: err.Error()})
			continue
		}
		results = append(results, BulkResult{LeadID: id})
	}
	return results
}

func (s *LeadService) BulkAddTags(ctx context.Context, leadIDs []string, tags []string, actorID string) []BulkResult {
	return s.bulkRetag(ctx, leadIDs, tags, actorID, entity.ActivityTagsAdded, func(lead *entity.Lead) bool {
		changed := false
		for _, t := range tags {
			if !lead.HasTag(t) {
				lead.Tags = append(lead.Tags, t)
				changed = true
			}
		}
		return changed
	})
}

func (s *LeadService) BulkRemoveTags(ctx context.Context, leadIDs []string, tags []string, actorID string) []BulkResult {
	drop := make(map[string]bool, len(tags))
	for _, t := range tags {
		drop[t] = true
	}
	return s.bulkRetag(ctx, leadIDs, tags, actorID, entity.ActivityTagsRemoved, func(lead *entity.Lead) bool {
		kept := lead.Tags[:0]
		for _, t := range lead.Tags {
			if !drop[t] {
				kept = append(kept, t)
			}
		}
		changed := len(kept) != len(lead.Tags)
		lead.Tags = kept
		return changed
	})
}

func (s *LeadService) bulkRetag(ctx context.Context, leadIDs, tags []string, actorID, eventType string, mutate func(*entity.Lead) bool) []BulkResult {
	results := make([]BulkResult, 0, len(leadIDs))
	for _, id := range leadIDs {
		old, err := s.Leads.FindByID(ctx, id)
		if err != nil {
			results = append(results, BulkResult{LeadID: id, Error: "Lead not found"})
			continue
		}

		lead := old.Clone()
		mutate(lead)
		lead.Version = old.Version + 1
		lead.UpdatedAt = time.Now()

		if err := s.Leads.Update(ctx, lead, old.Version); err != nil {
			results = append(results, BulkResult{LeadID: id, Error: err.Error()})
			continue
		}

		s.Activities.Log(ctx, id, eventType, map[string]any{"tags": tags, "is_bulk": true}, actorID)
		s.Dispatcher.TriggerWebhooks(ctx, entity.EventLeadUpdated, lead)
		results = append(results, BulkResult{LeadID: id})
	}
	return results
}

func (s *LeadService) BulkReassign(ctx context.Context, leadIDs []string, newOwner, actorID string) []BulkResult {
	updates := UpdateLeadInput{AssignedTo: &newOwner}
	results := make([]BulkResult, 0, len(leadIDs))
	for _, id := range leadIDs {
		if _, err := s.applyUpdate(ctx, id, updates, actorID, true); err != nil {
			results = append(results, BulkResult{LeadID: id, Error: err.Error()})
			continue
		}
		results = append(results, BulkResult{LeadID: id})
	}
	return results
}

func (s *LeadService) BulkDelete(ctx context.Context, leadIDs []string, actorID string) []BulkResult {
	return s.SoftDelete(ctx, leadIDs, actorID)
}
