package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mastry/crm-backend/internal/entity"
	"github.com/mastry/crm-backend/internal/phone"
)

// ActivityLog is the append-only audit trail. Every mutating operation in
// the engine records its entries here; nothing is ever rewritten.
type ActivityLog struct {
	Repo  entity.ActivityRepository
	Leads entity.LeadRepository
}

func NewActivityLog(repo entity.ActivityRepository, leads entity.LeadRepository) *ActivityLog {
	return &ActivityLog{Repo: repo, Leads: leads}
}

func (l *ActivityLog) Log(ctx context.Context, leadID, eventType string, data map[string]any, actorID string) (*entity.Activity, error) {
	a := &entity.Activity{
		ID:          uuid.New().String(),
		LeadID:      leadID,
		EventType:   eventType,
		EventData:   data,
		PerformedBy: actorID,
		Timestamp:   time.Now(),
	}
	if err := l.Repo.Insert(ctx, a); err != nil {
		return nil, &TechnicalError{Code: "ACTIVITY_WRITE_FAILED", Message: err.Error()}
	}
	return a, nil
}

// ForLead returns the lead's trail, newest first.
func (l *ActivityLog) ForLead(ctx context.Context, leadID string) ([]*entity.Activity, error) {
	return l.Repo.ListByLead(ctx, leadID)
}

// CallLogEntry joins a call_logged activity with its lead for the calls view.
type CallLogEntry struct {
	*entity.Activity
	Lead *entity.Lead `json:"lead"`
}

// CallLogs returns every logged call joined with its lead, newest first.
// Calls whose lead has been purged are skipped.
func (l *ActivityLog) CallLogs(ctx context.Context) ([]CallLogEntry, error) {
	acts, err := l.Repo.ListByType(ctx, entity.ActivityCallLogged)
	if err != nil {
		return nil, err
	}

	out := make([]CallLogEntry, 0, len(acts))
	for _, a := range acts {
		lead, err := l.Leads.FindByID(ctx, a.LeadID)
		if err != nil {
			continue
		}
		out = append(out, CallLogEntry{Activity: a, Lead: lead})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// LogCallFromBooking records a completed call against the lead matching the
// booking's phone number. Returns false when no lead matches.
func (l *ActivityLog) LogCallFromBooking(ctx context.Context, rawPhone, source, actorID string) (bool, error) {
	lead, err := l.Leads.FindByNormalizedPhone(ctx, phone.Normalize(rawPhone, ""))
	if err != nil {
		return false, nil
	}
	_, err = l.Log(ctx, lead.ID, entity.ActivityCallLogged, map[string]any{
		"duration": "15:00",
		"status":   "Completed",
		"notes":    "Synced from booking",
		"source":   source,
	}, actorID)
	return err == nil, err
}
