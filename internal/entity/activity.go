package entity

import (
	"context"
	"time"
)

// Activity event types. The taxonomy is open: the log stores whatever the
// engine emits, these are the well-known values.
const (
	ActivityLeadCreated       = "lead_created"
	ActivityLeadMerged        = "lead_updated (merged)"
	ActivityLeadDeleted       = "lead_deleted"
	ActivityLeadRestored      = "lead_restored"
	ActivityStatusChanged     = "status_changed"
	ActivityTagsUpdated       = "tags_updated"
	ActivityTagsAdded         = "tags_added"
	ActivityTagsRemoved       = "tags_removed"
	ActivityTagRenamed        = "tag_renamed"
	ActivityTagMerged         = "tag_merged"
	ActivityTagDeleted        = "tag_deleted"
	ActivityPaymentAdded      = "payment_added"
	ActivityAssignedToChanged = "assigned_to_changed"
	ActivityNoteAdded         = "note_added"
	ActivityCallLogged        = "call_logged"
	ActivityEmailSent         = "email_sent"
	ActivityEmailFailed       = "email_failed"
	ActivityWhatsAppSent      = "whatsapp_triggered"
	ActivityWhatsAppFailed    = "whatsapp_failed"
	ActivityWebhookTriggered  = "webhook_triggered"
)

// Activity is one immutable audit record. Entries are never updated or
// deleted once written.
type Activity struct {
	ID          string         `json:"id"`
	LeadID      string         `json:"lead_id"`
	EventType   string         `json:"event_type"`
	EventData   map[string]any `json:"event_data,omitempty"`
	PerformedBy string         `json:"performed_by"` // user ID or SystemActor
	Timestamp   time.Time      `json:"timestamp"`
}

type ActivityRepository interface {
	Insert(ctx context.Context, a *Activity) error
	// ListByLead returns entries newest first.
	ListByLead(ctx context.Context, leadID string) ([]*Activity, error)
	ListByType(ctx context.Context, eventType string) ([]*Activity, error)
	List(ctx context.Context) ([]*Activity, error)
}
