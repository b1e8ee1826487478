package entity

import (
	"context"
	"time"
)

// AutomationEvent is the closed taxonomy of domain events handed to the
// automation dispatcher. EventUnknown exists so unrecognized trigger strings
// from stored subscriptions stay representable.
type AutomationEvent string

const (
	EventLeadCreated   AutomationEvent = "lead_created"
	EventLeadUpdated   AutomationEvent = "lead_updated"
	EventStatusChanged AutomationEvent = "status_changed"
	EventLeadDeleted   AutomationEvent = "lead_deleted"
	EventPaymentAdded  AutomationEvent = "payment_added"
	EventLeadAssigned  AutomationEvent = "lead_assigned"
	EventUnknown       AutomationEvent = "event_unknown"
)

// ParseAutomationEvent maps a stored trigger string to the enum, falling
// back to EventUnknown.
func ParseAutomationEvent(s string) AutomationEvent {
	switch AutomationEvent(s) {
	case EventLeadCreated, EventLeadUpdated, EventStatusChanged,
		EventLeadDeleted, EventPaymentAdded, EventLeadAssigned:
		return AutomationEvent(s)
	}
	return EventUnknown
}

// WebhookConfig is a delivery subscription. The Settings UI owns this data;
// the engine only consumes the resolved list.
type WebhookConfig struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	WebhookURL    string     `json:"webhook_url"`
	Triggers      []string   `json:"triggers"`
	IsActive      bool       `json:"is_active"`
	LastTriggered *time.Time `json:"last_triggered,omitempty"`
}

// Listens reports whether the subscription wants the event.
func (w *WebhookConfig) Listens(event AutomationEvent) bool {
	for _, t := range w.Triggers {
		if ParseAutomationEvent(t) == event {
			return true
		}
	}
	return false
}

type WebhookRepository interface {
	List(ctx context.Context) ([]*WebhookConfig, error)
	Save(ctx context.Context, w *WebhookConfig) error
	Delete(ctx context.Context, id string) error
}

// TagRepository owns the canonical tag vocabulary, independent of any lead.
type TagRepository interface {
	List(ctx context.Context) ([]string, error)
	Save(ctx context.Context, tags []string) error
}
