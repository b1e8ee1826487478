package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastry/crm-backend/internal/entity"
	"github.com/mastry/crm-backend/internal/usecase"
)

func TestTriggerAutomationSuccessLogsSnippet(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", PhoneRaw: "9876543210",
	}, "admin")
	require.NoError(t, err)

	long := strings.Repeat("x", 80)
	require.NoError(t, e.dispatcher.TriggerAutomation(ctx, usecase.ChannelEmail, lead.ID, long, "admin"))

	acts, err := e.activities.ForLead(ctx, lead.ID)
	require.NoError(t, err)

	var entry *entity.Activity
	for _, a := range acts {
		if a.EventType == entity.ActivityEmailSent {
			entry = a
		}
	}
	require.NotNil(t, entry)
	snippet, _ := entry.EventData["content_snippet"].(string)
	assert.Equal(t, strings.Repeat("x", 50)+"...", snippet)
}

func TestTriggerAutomationFailureLogsAndReturns(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", PhoneRaw: "9876543210",
	}, "admin")
	require.NoError(t, err)

	e.sender.fail = &usecase.AutomationError{
		Code:      "ETIMEDOUT",
		Message:   "Email server timed out. Retrying automatically...",
		Retryable: true,
	}

	err = e.dispatcher.TriggerAutomation(ctx, usecase.ChannelWhatsApp, lead.ID, "hello", "admin")
	require.Error(t, err)

	var ae *usecase.AutomationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "ETIMEDOUT", ae.Code)
	assert.True(t, ae.Retryable)
	assert.Equal(t, usecase.ChannelWhatsApp, ae.Channel)
	assert.Contains(t, ae.Error(), "WhatsApp Failed:")

	acts, err := e.activities.ForLead(ctx, lead.ID)
	require.NoError(t, err)

	var entry *entity.Activity
	for _, a := range acts {
		if a.EventType == entity.ActivityWhatsAppFailed {
			entry = a
		}
	}
	require.NotNil(t, entry)
	assert.Equal(t, "ETIMEDOUT", entry.EventData["error_code"])
	assert.Equal(t, true, entry.EventData["retryable"])
}

func TestTriggerAutomationUnknownLead(t *testing.T) {
	e := newEngine()

	err := e.dispatcher.TriggerAutomation(context.Background(), usecase.ChannelEmail, "missing", "hi", "admin")
	require.Error(t, err)
	assert.True(t, usecase.HasCode(err, usecase.CodeNotFound))
}

func TestWebhookFanOutFiltersSubscribers(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	webhooks := e.store.Webhooks()
	require.NoError(t, webhooks.Save(ctx, &entity.WebhookConfig{
		ID: "w1", Name: "listening", WebhookURL: "https://a.example.com",
		Triggers: []string{"status_changed"}, IsActive: true,
	}))
	require.NoError(t, webhooks.Save(ctx, &entity.WebhookConfig{
		ID: "w2", Name: "inactive", WebhookURL: "https://b.example.com",
		Triggers: []string{"status_changed"}, IsActive: false,
	}))
	require.NoError(t, webhooks.Save(ctx, &entity.WebhookConfig{
		ID: "w3", Name: "other-event", WebhookURL: "https://c.example.com",
		Triggers: []string{"lead_deleted"}, IsActive: true,
	}))

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", PhoneRaw: "9876543210",
	}, "admin")
	require.NoError(t, err)
	e.deliverer.calls = nil

	e.dispatcher.TriggerWebhooks(ctx, entity.EventStatusChanged, lead)

	assert.Equal(t, []string{"https://a.example.com"}, e.deliverer.calls)

	acts, err := e.activities.ForLead(ctx, lead.ID)
	require.NoError(t, err)
	var entry *entity.Activity
	for _, a := range acts {
		if a.EventType == entity.ActivityWebhookTriggered {
			entry = a
		}
	}
	require.NotNil(t, entry)
	assert.Equal(t, entity.SystemActor, entry.PerformedBy)
	assert.Equal(t, "listening", entry.EventData["webhook_name"])
}

func TestWebhookFailureDoesNotBlockOthers(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	webhooks := e.store.Webhooks()
	require.NoError(t, webhooks.Save(ctx, &entity.WebhookConfig{
		ID: "w1", Name: "flaky", WebhookURL: "https://flaky.example.com",
		Triggers: []string{"lead_updated"}, IsActive: true,
	}))
	require.NoError(t, webhooks.Save(ctx, &entity.WebhookConfig{
		ID: "w2", Name: "solid", WebhookURL: "https://solid.example.com",
		Triggers: []string{"lead_updated"}, IsActive: true,
	}))
	e.deliverer.failURLs["https://flaky.example.com"] = true

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", PhoneRaw: "9876543210",
	}, "admin")
	require.NoError(t, err)
	e.deliverer.calls = nil

	e.dispatcher.TriggerWebhooks(ctx, entity.EventLeadUpdated, lead)
	assert.Len(t, e.deliverer.calls, 2)

	acts, _ := e.activities.ForLead(ctx, lead.ID)
	statuses := []int{}
	for _, a := range acts {
		if a.EventType == entity.ActivityWebhookTriggered {
			if s, ok := a.EventData["status"].(int); ok {
				statuses = append(statuses, s)
			}
		}
	}
	assert.ElementsMatch(t, []int{500, 200}, statuses)
}

func TestUpdateEmitsFlaggedEventsOnly(t *testing.T) {
	e := newEngine()
	ctx := context.Background()

	webhooks := e.store.Webhooks()
	require.NoError(t, webhooks.Save(ctx, &entity.WebhookConfig{
		ID: "all", Name: "all", WebhookURL: "https://all.example.com",
		Triggers: []string{"lead_created", "lead_updated", "status_changed", "payment_added", "lead_assigned"},
		IsActive: true,
	}))

	lead, err := e.leads.Create(ctx, usecase.CreateLeadInput{
		FirstName: "Priya", LastName: "Sharma", PhoneRaw: "9876543210",
	}, "admin")
	require.NoError(t, err)
	e.deliverer.calls = nil

	// Status change suppresses the generic update event.
	_, err = e.leads.Update(ctx, lead.ID, usecase.UpdateLeadInput{
		Status: strptr(entity.StatusEligible),
	}, "admin")
	require.NoError(t, err)
	assert.Len(t, e.deliverer.calls, 1)

	// A plain field edit emits exactly one generic update.
	e.deliverer.calls = nil
	_, err = e.leads.Update(ctx, lead.ID, usecase.UpdateLeadInput{
		Email: strptr("p@example.com"),
	}, "admin")
	require.NoError(t, err)
	assert.Len(t, e.deliverer.calls, 1)
}

func TestSimulatedDeliveryTaxonomy(t *testing.T) {
	sim := usecase.NewSimulatedDelivery(42)
	lead := &entity.Lead{ID: "l1", Email: "x@example.com"}

	known := map[string]bool{"EAUTH": false, "ETIMEDOUT": true, "ECONNREFUSED": false, "ERATELIMIT": true}
	failures := 0
	for i := 0; i < 500; i++ {
		if err := sim.Send(context.Background(), usecase.ChannelEmail, lead, "hi"); err != nil {
			failures++
			retryable, ok := known[err.Code]
			require.True(t, ok, "unexpected failure code %s", err.Code)
			assert.Equal(t, retryable, err.Retryable)
		}
	}
	assert.Greater(t, failures, 0)
	assert.Less(t, failures, 250)
}
