package usecase

import (
	"context"

	"github.com/mastry/crm-backend/internal/entity"
)

// EmailService is the outbound email port. The SMTP sender in infra/mail
// implements it; tests swap in a double.
type EmailService interface {
	Send(to, subject, body string) error
}

// WhatsAppService is the outbound WhatsApp port, implemented by the HTTP
// client in infra/whatsapp.
type WhatsAppService interface {
	Send(phone, message string) error
}

// EventPublisher fans domain events out to external consumers (the RabbitMQ
// producer in infra/queue). Optional: a nil publisher disables it.
type EventPublisher interface {
	PublishLeadEvent(ctx context.Context, event entity.AutomationEvent, lead *entity.Lead) error
}

// WebhookResult is one simulated (or real) delivery attempt.
type WebhookResult struct {
	Status    int
	LatencyMS int
	Response  string
	OK        bool
}

// ChannelSender attempts an email/WhatsApp delivery for the dispatcher.
// The default implementation simulates provider flakiness; swapping in a
// provider-backed sender turns the simulation into real sends.
type ChannelSender interface {
	Send(ctx context.Context, channel Channel, lead *entity.Lead, content string) *AutomationError
}

// WebhookDeliverer attempts one webhook delivery.
type WebhookDeliverer interface {
	Deliver(ctx context.Context, cfg *entity.WebhookConfig, event entity.AutomationEvent, lead *entity.Lead) WebhookResult
}
