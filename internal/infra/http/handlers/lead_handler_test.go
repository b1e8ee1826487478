package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mastry/crm-backend/internal/entity"
	"github.com/mastry/crm-backend/internal/infra/database"
	"github.com/mastry/crm-backend/internal/infra/http/handlers"
	"github.com/mastry/crm-backend/internal/usecase"
)

type noopSender struct{}

func (noopSender) Send(context.Context, usecase.Channel, *entity.Lead, string) *usecase.AutomationError {
	return nil
}

type noopDeliverer struct{}

func (noopDeliverer) Deliver(context.Context, *entity.WebhookConfig, entity.AutomationEvent, *entity.Lead) usecase.WebhookResult {
	return usecase.WebhookResult{Status: 200, Response: "OK", OK: true}
}

func newTestRouter() http.Handler {
	store := database.NewMemoryStore()
	activities := usecase.NewActivityLog(store.Activities(), store.Leads())
	rotator := usecase.NewRotator(store.Rotation())
	dispatcher := usecase.NewAutomationDispatcher(store.Leads(), store.Webhooks(), activities, noopSender{}, noopDeliverer{}, nil)
	leadService := usecase.NewLeadService(store.Leads(), activities, rotator, dispatcher)

	h := handlers.NewLeadHandler(leadService, activities)

	r := chi.NewRouter()
	r.Post("/capture", h.Capture)
	r.Route("/leads", func(rt chi.Router) {
		rt.Post("/", h.Create)
		rt.Get("/{id}", h.Get)
		rt.Patch("/{id}", h.Update)
	})
	return r
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "admin")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateLeadEndpoint(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/leads/", map[string]any{
		"first_name": "Priya",
		"last_name":  "Sharma",
		"phone_raw":  "98765 43210",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var lead entity.Lead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lead))
	assert.Equal(t, 1, lead.Version)
	assert.Equal(t, "+919876543210", lead.PhoneNormalized)
}

func TestCreateDuplicateEndpoint(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/leads/", map[string]any{
		"first_name": "Priya", "last_name": "Sharma", "phone_raw": "9876543210",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/leads/", map[string]any{
		"first_name": "Other", "last_name": "Person", "phone_raw": "+91-9876543210",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, usecase.CodeDuplicateLead, resp.Code)
}

func TestUpdateConflictEndpoint(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/leads/", map[string]any{
		"first_name": "Priya", "last_name": "Sharma", "phone_raw": "9876543210",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var lead entity.Lead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lead))

	rec = doJSON(t, router, http.MethodPatch, "/leads/"+lead.ID, map[string]any{
		"status":           "eligible",
		"expected_version": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPatch, "/leads/"+lead.ID, map[string]any{
		"status":           "selected",
		"expected_version": 1,
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, usecase.CodeConflict, resp.Code)
}

func TestCaptureMergesDuplicates(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/leads/", map[string]any{
		"first_name": "Priya", "last_name": "Sharma", "phone_raw": "9876543210",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/capture", map[string]any{
		"first_name": "Priyanka", "last_name": "Sharma",
		"email": "priyanka@other.com", "phone_raw": "98765 43210",
		"tags": []string{"meta-ads"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Merged bool         `json:"merged"`
		Lead   *entity.Lead `json:"lead"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Merged)
	require.NotNil(t, resp.Lead)
	assert.Equal(t, "Priya", resp.Lead.FirstName)
	assert.Equal(t, "priyanka@other.com", resp.Lead.Email)
	assert.Contains(t, resp.Lead.Tags, "meta-ads")
}
