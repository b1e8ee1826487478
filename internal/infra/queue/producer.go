package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mastry/crm-backend/internal/entity"
	amqp "github.com/rabbitmq/amqp091-go"
)

// LeadEventPayload is the wire format for lead lifecycle events published
// to the bus. Consumers (analytics, sync jobs) only need the identity and
// the headline fields.
type LeadEventPayload struct {
	Event      string    `json:"event"`
	LeadID     string    `json:"lead_id"`
	Version    int       `json:"version"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Status     string    `json:"status"`
	AssignedTo string    `json:"assigned_to,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type RabbitMQProducer struct {
	Ch *amqp.Channel
}

func NewProducer(ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishLeadEvent(ctx context.Context, event entity.AutomationEvent, lead *entity.Lead) error {
	payload := LeadEventPayload{
		Event:      string(event),
		LeadID:     lead.ID,
		Version:    lead.Version,
		FullName:   lead.FullName,
		Email:      lead.Email,
		Phone:      lead.PhoneNormalized,
		Status:     lead.Status,
		AssignedTo: lead.AssignedTo,
		OccurredAt: time.Now(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("payload marshal failed: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	return nil
}
