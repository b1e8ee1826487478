package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/mastry/crm-backend/internal/entity"
)

// TagService maintains the canonical tag vocabulary. The registry exists
// independently of leads so unused tags stay discoverable; rename/merge/
// delete propagate to every lead carrying the tag, trashed ones included,
// and each touched lead gets a version bump and an audit entry.
type TagService struct {
	Leads      entity.LeadRepository
	Registry   entity.TagRepository
	Activities *ActivityLog
}

func NewTagService(leads entity.LeadRepository, registry entity.TagRepository, activities *ActivityLog) *TagService {
	return &TagService{Leads: leads, Registry: registry, Activities: activities}
}

// Create registers the tag. Idempotent.
func (s *TagService) Create(ctx context.Context, name string) error {
	tags, err := s.Registry.List(ctx)
	if err != nil {
		return &TechnicalError{Code: "STORE_READ_FAILED", Message: err.Error()}
	}
	if contains(tags, name) {
		return nil
	}
	return s.Registry.Save(ctx, append(tags, name))
}

// Rename replaces oldTag with newTag on every lead and in the registry
// slot, deduplicating on leads that already carried newTag independently.
func (s *TagService) Rename(ctx context.Context, oldTag, newTag, actorID string) error {
	if err := s.retagLeads(ctx, oldTag, newTag, actorID, entity.ActivityTagRenamed); err != nil {
		return err
	}

	tags, err := s.Registry.List(ctx)
	if err != nil {
		return &TechnicalError{Code: "STORE_READ_FAILED", Message: err.Error()}
	}
	replaced := false
	for i, t := range tags {
		if t == oldTag {
			tags[i] = newTag
			replaced = true
			break
		}
	}
	if !replaced && !contains(tags, newTag) {
		tags = append(tags, newTag)
	}
	tags = dedupe(tags)
	return s.Registry.Save(ctx, tags)
}

// Merge absorbs oldTag into newTag: same per-lead effect as Rename, but the
// old name is dropped from the registry instead of replacing a slot.
func (s *TagService) Merge(ctx context.Context, oldTag, newTag, actorID string) error {
	if err := s.retagLeads(ctx, oldTag, newTag, actorID, entity.ActivityTagMerged); err != nil {
		return err
	}

	tags, err := s.Registry.List(ctx)
	if err != nil {
		return &TechnicalError{Code: "STORE_READ_FAILED", Message: err.Error()}
	}
	kept := tags[:0]
	for _, t := range tags {
		if t != oldTag {
			kept = append(kept, t)
		}
	}
	if !contains(kept, newTag) {
		kept = append(kept, newTag)
	}
	return s.Registry.Save(ctx, kept)
}

// Delete strips the tag from every lead that has it and removes the
// registry entry.
func (s *TagService) Delete(ctx context.Context, tag, actorID string) error {
	leads, err := s.allLeads(ctx)
	if err != nil {
		return err
	}

	for _, old := range leads {
		if !old.HasTag(tag) {
			continue
		}
		lead := old.Clone()
		kept := lead.Tags[:0]
		for _, t := range lead.Tags {
			if t != tag {
				kept = append(kept, t)
			}
		}
		lead.Tags = kept
		lead.Version = old.Version + 1
		lead.UpdatedAt = time.Now()
		if err := s.Leads.Update(ctx, lead, old.Version); err != nil {
			return &TechnicalError{Code: "STORE_WRITE_FAILED", Message: err.Error()}
		}
		s.Activities.Log(ctx, lead.ID, entity.ActivityTagDeleted, map[string]any{"tag": tag}, actorID)
	}

	tags, err := s.Registry.List(ctx)
	if err != nil {
		return &TechnicalError{Code: "STORE_READ_FAILED", Message: err.Error()}
	}
	kept := tags[:0]
	for _, t := range tags {
		if t != tag {
			kept = append(kept, t)
		}
	}
	return s.Registry.Save(ctx, kept)
}

// List returns every known tag with its live count over non-deleted leads.
// Registry-only tags appear with a zero count.
func (s *TagService) List(ctx context.Context) ([]TagCount, error) {
	leads, err := s.Leads.List(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: "STORE_READ_FAILED", Message: err.Error()}
	}

	counts := map[string]int{}
	for _, l := range leads {
		for _, t := range l.Tags {
			counts[t]++
		}
	}

	registered, err := s.Registry.List(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: "STORE_READ_FAILED", Message: err.Error()}
	}
	for _, t := range registered {
		if _, ok := counts[t]; !ok {
			counts[t] = 0
		}
	}

	out := make([]TagCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, TagCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *TagService) retagLeads(ctx context.Context, oldTag, newTag, actorID, eventType string) error {
	leads, err := s.allLeads(ctx)
	if err != nil {
		return err
	}

	for _, old := range leads {
		if !old.HasTag(oldTag) {
			continue
		}
		lead := old.Clone()
		replaced := make([]string, 0, len(lead.Tags))
		for _, t := range lead.Tags {
			if t == oldTag {
				t = newTag
			}
			replaced = append(replaced, t)
		}
		lead.Tags = dedupe(replaced)
		lead.Version = old.Version + 1
		lead.UpdatedAt = time.Now()
		if err := s.Leads.Update(ctx, lead, old.Version); err != nil {
			return &TechnicalError{Code: "STORE_WRITE_FAILED", Message: err.Error()}
		}
		s.Activities.Log(ctx, lead.ID, eventType, map[string]any{"old": oldTag, "new": newTag}, actorID)
	}
	return nil
}

func (s *TagService) allLeads(ctx context.Context) ([]*entity.Lead, error) {
	active, err := s.Leads.List(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: "STORE_READ_FAILED", Message: err.Error()}
	}
	trashed, err := s.Leads.ListDeleted(ctx)
	if err != nil {
		return nil, &TechnicalError{Code: "STORE_READ_FAILED", Message: err.Error()}
	}
	return append(active, trashed...), nil
}

// dedupe keeps first occurrences, preserving order.
func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
