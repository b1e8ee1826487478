package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mastry/crm-backend/internal/entity"
	"github.com/mastry/crm-backend/internal/infra/http/middleware"
	"github.com/mastry/crm-backend/internal/usecase"
)

type AutomationHandler struct {
	Dispatcher *usecase.AutomationDispatcher
	Templates  *usecase.TemplateService
	Leads      *usecase.LeadService
	Webhooks   entity.WebhookRepository
}

func NewAutomationHandler(
	dispatcher *usecase.AutomationDispatcher,
	templates *usecase.TemplateService,
	leads *usecase.LeadService,
	webhooks entity.WebhookRepository,
) *AutomationHandler {
	return &AutomationHandler{
		Dispatcher: dispatcher,
		Templates:  templates,
		Leads:      leads,
		Webhooks:   webhooks,
	}
}

type triggerRequest struct {
	Channel usecase.Channel `json:"channel"`
	LeadID  string          `json:"lead_id"`
	Content string          `json:"content"`
}

// Trigger fires one email or WhatsApp send for a lead. Template variables
// in the content are resolved before sending.
func (h *AutomationHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON"})
		return
	}
	if req.Channel != usecase.ChannelEmail && req.Channel != usecase.ChannelWhatsApp {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "channel must be email or whatsapp"})
		return
	}

	ctx := r.Context()
	lead, err := h.Leads.Get(ctx, req.LeadID)
	if err != nil {
		writeError(w, err)
		return
	}
	content := h.Templates.Render(ctx, req.Content, lead)

	if err := h.Dispatcher.TriggerAutomation(ctx, req.Channel, req.LeadID, content, actorID(r)); err != nil {
		middleware.RecordAutomationSend(string(req.Channel), "failed")
		writeError(w, err)
		return
	}
	middleware.RecordAutomationSend(string(req.Channel), "sent")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AutomationHandler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	configs, err := h.Webhooks.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, configs)
}

func (h *AutomationHandler) SaveWebhook(w http.ResponseWriter, r *http.Request) {
	var cfg entity.WebhookConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON"})
		return
	}
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}

	if err := h.Webhooks.Save(r.Context(), &cfg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *AutomationHandler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	if err := h.Webhooks.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type testWebhookRequest struct {
	LeadID string `json:"lead_id"`
	Event  string `json:"event"`
}

// TestWebhook replays an event for a lead against the configured
// subscriptions, so operators can verify a new endpoint end to end.
func (h *AutomationHandler) TestWebhook(w http.ResponseWriter, r *http.Request) {
	var req testWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON"})
		return
	}

	lead, err := h.Leads.Get(r.Context(), req.LeadID)
	if err != nil {
		writeError(w, err)
		return
	}

	event := entity.ParseAutomationEvent(req.Event)
	h.Dispatcher.TriggerWebhooks(r.Context(), event, lead)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "event": event, "tested_at": time.Now()})
}

func (h *AutomationHandler) ListEmailTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Templates.ListEmail(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *AutomationHandler) SaveEmailTemplate(w http.ResponseWriter, r *http.Request) {
	var t entity.EmailTemplate
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON"})
		return
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	if err := h.Templates.SaveEmail(r.Context(), &t); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *AutomationHandler) ListWhatsAppTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Templates.ListWhatsApp(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *AutomationHandler) SaveWhatsAppTemplate(w http.ResponseWriter, r *http.Request) {
	var t entity.WhatsAppTemplate
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON"})
		return
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}

	if err := h.Templates.SaveWhatsApp(r.Context(), &t); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *AutomationHandler) DeleteWhatsAppTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.Templates.DeleteWhatsApp(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type paymentLinkRequest struct {
	LeadID    string `json:"lead_id"`
	ServiceID string `json:"service_id"`
	Coupon    string `json:"coupon"`
}

func (h *AutomationHandler) PaymentLink(w http.ResponseWriter, r *http.Request) {
	var req paymentLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON"})
		return
	}

	lead, err := h.Leads.Get(r.Context(), req.LeadID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"link": usecase.BuildPaymentLink(req.ServiceID, req.Coupon, lead),
	})
}
