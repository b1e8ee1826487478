package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/mastry/crm-backend/internal/entity"
	"github.com/mastry/crm-backend/internal/usecase"
)

// HTTPDeliverer posts events to subscriber endpoints for real. The payload
// carries the event name and the full lead record.
type HTTPDeliverer struct {
	Client *http.Client
}

func NewHTTPDeliverer() *HTTPDeliverer {
	return &HTTPDeliverer{Client: &http.Client{Timeout: 10 * time.Second}}
}

type eventPayload struct {
	Event     string       `json:"event"`
	Lead      *entity.Lead `json:"lead"`
	Timestamp time.Time    `json:"timestamp"`
}

func (d *HTTPDeliverer) Deliver(ctx context.Context, cfg *entity.WebhookConfig, event entity.AutomationEvent, lead *entity.Lead) usecase.WebhookResult {
	body, err := json.Marshal(eventPayload{Event: string(event), Lead: lead, Timestamp: time.Now()})
	if err != nil {
		return usecase.WebhookResult{Status: 0, Response: err.Error()}
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.WebhookURL, bytes.NewBuffer(body))
	if err != nil {
		return usecase.WebhookResult{Status: 0, Response: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	latency := int(time.Since(start).Milliseconds())
	if err != nil {
		return usecase.WebhookResult{Status: 0, LatencyMS: latency, Response: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return usecase.WebhookResult{
		Status:    resp.StatusCode,
		LatencyMS: latency,
		Response:  string(respBody),
		OK:        resp.StatusCode < 300,
	}
}
