package usecase

import (
	"context"
	"log"
	"math/rand"
	"sync"

	"github.com/mastry/crm-backend/internal/entity"
)

// AutomationDispatcher fans domain events out to webhook subscribers and
// performs (or simulates) email/WhatsApp sends. Delivery outcomes —
// including failures — always land in the activity trail so operators have
// a permanent record; only the triggering caller sees the raised error.
type AutomationDispatcher struct {
	Leads      entity.LeadRepository
	Webhooks   entity.WebhookRepository
	Activities *ActivityLog
	Sender     ChannelSender
	Deliverer  WebhookDeliverer
	Events     EventPublisher // optional
}

func NewAutomationDispatcher(
	leads entity.LeadRepository,
	webhooks entity.WebhookRepository,
	activities *ActivityLog,
	sender ChannelSender,
	deliverer WebhookDeliverer,
	events EventPublisher,
) *AutomationDispatcher {
	return &AutomationDispatcher{
		Leads:      leads,
		Webhooks:   webhooks,
		Activities: activities,
		Sender:     sender,
		Deliverer:  deliverer,
		Events:     events,
	}
}

// TriggerAutomation attempts one email/WhatsApp send for the lead. The
// outcome is logged either way; a failure is returned to the caller, who
// decides whether to retry (the Retryable flag says if that is safe).
func (d *AutomationDispatcher) TriggerAutomation(ctx context.Context, channel Channel, leadID, content, actorID string) error {
	lead, err := d.Leads.FindByID(ctx, leadID)
	if err != nil {
		return &DomainError{Code: CodeNotFound, Message: "Lead not found"}
	}

	sendErr := d.Sender.Send(ctx, channel, lead, content)
	if sendErr == nil {
		eventType := entity.ActivityEmailSent
		if channel == ChannelWhatsApp {
			eventType = entity.ActivityWhatsAppSent
		}
		d.Activities.Log(ctx, leadID, eventType, map[string]any{
			"content_snippet": snippet(content),
		}, actorID)
		return nil
	}

	eventType := entity.ActivityEmailFailed
	if channel == ChannelWhatsApp {
		eventType = entity.ActivityWhatsAppFailed
	}
	d.Activities.Log(ctx, leadID, eventType, map[string]any{
		"error_code": sendErr.Code,
		"message":    sendErr.Message,
		"retryable":  sendErr.Retryable,
	}, actorID)
	return sendErr
}

// TriggerWebhooks delivers the event to every active subscription listening
// for it. A failing subscriber never blocks the others. The event is also
// published to the external event bus when one is configured.
func (d *AutomationDispatcher) TriggerWebhooks(ctx context.Context, event entity.AutomationEvent, lead *entity.Lead) {
	if d.Events != nil && lead != nil {
		if err := d.Events.PublishLeadEvent(ctx, event, lead); err != nil {
			log.Printf("event publish failed for %s: %v", event, err)
		}
	}

	configs, err := d.Webhooks.List(ctx)
	if err != nil {
		log.Printf("webhook listing failed: %v", err)
		return
	}

	for _, cfg := range configs {
		if !cfg.IsActive || !cfg.Listens(event) {
			continue
		}
		res := d.Deliverer.Deliver(ctx, cfg, event, lead)
		if lead == nil || lead.ID == "" {
			continue
		}
		d.Activities.Log(ctx, lead.ID, entity.ActivityWebhookTriggered, map[string]any{
			"webhook_name": cfg.Name,
			"url":          cfg.WebhookURL,
			"status":       res.Status,
			"latency_ms":   res.LatencyMS,
			"response":     res.Response,
		}, entity.SystemActor)
	}
}

func snippet(content string) string {
	if len(content) <= 50 {
		return content
	}
	return content[:50] + "..."
}

// --- delivery strategies ---

type simulatedFailure struct {
	code      string
	message   string
	retryable bool
}

// The fixed failure taxonomy. Non-retryable entries need a configuration
// fix before another attempt makes sense.
var simulatedFailures = []simulatedFailure{
	{"EAUTH", "Email authentication failed. Please check SMTP credentials in Settings.", false},
	{"ETIMEDOUT", "Email server timed out. Retrying automatically...", true},
	{"ECONNREFUSED", "Cannot connect to email server. Check SMTP host and port.", false},
	{"ERATELIMIT", "Email rate limit exceeded. Will retry in 1 hour.", true},
}

// SimulatedDelivery models provider flakiness: sends fail ~20% of the time,
// webhook deliveries ~10%. Swap it for provider-backed senders in
// production or a deterministic double in tests.
type SimulatedDelivery struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewSimulatedDelivery(seed int64) *SimulatedDelivery {
	return &SimulatedDelivery{r: rand.New(rand.NewSource(seed))}
}

func (s *SimulatedDelivery) Send(_ context.Context, channel Channel, _ *entity.Lead, _ string) *AutomationError {
	s.mu.Lock()
	roll := s.r.Float64()
	pick := s.r.Intn(len(simulatedFailures))
	s.mu.Unlock()

	if roll > 0.2 {
		return nil
	}
	f := simulatedFailures[pick]
	return &AutomationError{Channel: channel, Code: f.code, Message: f.message, Retryable: f.retryable}
}

func (s *SimulatedDelivery) Deliver(_ context.Context, cfg *entity.WebhookConfig, event entity.AutomationEvent, _ *entity.Lead) WebhookResult {
	s.mu.Lock()
	roll := s.r.Float64()
	latency := s.r.Intn(500)
	s.mu.Unlock()

	log.Printf("[webhook] %s for %s", cfg.WebhookURL, event)
	if roll > 0.1 {
		return WebhookResult{Status: 200, LatencyMS: latency, Response: "OK", OK: true}
	}
	return WebhookResult{Status: 500, LatencyMS: latency, Response: "Internal Server Error"}
}

// ProviderSender routes channel sends to real provider clients. Missing
// configuration is a non-retryable failure; a provider refusal is
// retryable.
type ProviderSender struct {
	Email    EmailService
	WhatsApp WhatsAppService
	Subject  string
}

func (p *ProviderSender) Send(_ context.Context, channel Channel, lead *entity.Lead, content string) *AutomationError {
	switch channel {
	case ChannelEmail:
		if p.Email == nil {
			return &AutomationError{Channel: channel, Code: "EAUTH", Message: "Email authentication failed. Please check SMTP credentials in Settings.", Retryable: false}
		}
		subject := p.Subject
		if subject == "" {
			subject = "Update on your application"
		}
		if err := p.Email.Send(lead.Email, subject, content); err != nil {
			return &AutomationError{Channel: channel, Code: "ESEND", Message: err.Error(), Retryable: true}
		}
	case ChannelWhatsApp:
		if p.WhatsApp == nil {
			return &AutomationError{Channel: channel, Code: "ECONNREFUSED", Message: "Cannot connect to WhatsApp provider. Check integration settings.", Retryable: false}
		}
		if err := p.WhatsApp.Send(lead.PhoneNormalized, content); err != nil {
			return &AutomationError{Channel: channel, Code: "ESEND", Message: err.Error(), Retryable: true}
		}
	}
	return nil
}
