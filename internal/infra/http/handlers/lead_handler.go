package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mastry/crm-backend/internal/entity"
	"github.com/mastry/crm-backend/internal/infra/http/middleware"
	"github.com/mastry/crm-backend/internal/usecase"
)

type LeadHandler struct {
	Service     *usecase.LeadService
	Activities  *usecase.ActivityLog
	rateLimiter *RateLimiter
}

func NewLeadHandler(service *usecase.LeadService, activities *usecase.ActivityLog) *LeadHandler {
	return &LeadHandler{
		Service:     service,
		Activities:  activities,
		rateLimiter: NewRateLimiter(30, time.Minute),
	}
}

// actorID identifies who performed the request. The UI forwards the logged
// in user; unauthenticated intake endpoints fall back to the system actor.
func actorID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return entity.SystemActor
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON"})
		return
	}

	lead, err := h.Service.Create(r.Context(), input, actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	middleware.RecordLeadCreated(lead.Source)
	writeJSON(w, http.StatusCreated, lead)
}

type captureRequest struct {
	usecase.CreateLeadInput
}

// Capture is the public intake endpoint used by forms and ad integrations.
// A submission matching an existing lead by phone is merged instead of
// rejected, so repeat form fills enrich the record.
func (h *LeadHandler) Capture(w http.ResponseWriter, r *http.Request) {
	if !h.rateLimiter.Allow(getClientIP(r)) {
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Message: "Too many requests. Please try again later."})
		return
	}

	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON"})
		return
	}

	ctx := r.Context()
	check, err := h.Service.CheckDuplicate(ctx, req.PhoneRaw)
	if err != nil {
		writeError(w, err)
		return
	}

	if check.Exists {
		merged, err := h.Service.Merge(ctx, check.Lead.ID, usecase.MergeLeadInput{
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			Email:         req.Email,
			Tags:          req.Tags,
			SourceDetails: req.SourceDetails,
		}, entity.SystemActor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"merged": true, "lead": merged})
		return
	}

	lead, err := h.Service.Create(ctx, req.CreateLeadInput, entity.SystemActor)
	if err != nil {
		writeError(w, err)
		return
	}
	middleware.RecordLeadCreated(lead.Source)
	writeJSON(w, http.StatusCreated, map[string]any{"merged": false, "lead": lead})
}

func (h *LeadHandler) CheckDuplicate(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "phone query parameter is required"})
		return
	}

	check, err := h.Service.CheckDuplicate(r.Context(), phone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	leads, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	lead, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON"})
		return
	}

	lead, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), input, actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var input usecase.MergeLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON"})
		return
	}

	lead, err := h.Service.Merge(r.Context(), chi.URLParam(r, "id"), input, actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	results := h.Service.SoftDelete(r.Context(), []string{chi.URLParam(r, "id")}, actorID(r))
	writeJSON(w, http.StatusOK, results)
}

func (h *LeadHandler) Restore(w http.ResponseWriter, r *http.Request) {
	lead, err := h.Service.Restore(r.Context(), chi.URLParam(r, "id"), actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	leads, err := h.Service.ListTrash(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

func (h *LeadHandler) Purge(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Purge(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *LeadHandler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	purged, err := h.Service.EmptyTrash(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"purged": purged})
}

type bulkUpdateRequest struct {
	IDs     []string                `json:"ids"`
	Updates usecase.UpdateLeadInput `json:"updates"`
}

func (h *LeadHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON"})
		return
	}
	writeJSON(w, http.StatusOK, h.Service.BulkUpdate(r.Context(), req.IDs, req.Updates, actorID(r)))
}

type bulkTagsRequest struct {
	IDs  []string `json:"ids"`
	Tags []string `json:"tags"`
}

func (h *LeadHandler) BulkAddTags(w http.ResponseWriter, r *http.Request) {
	var req bulkTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON"})
		return
	}
	writeJSON(w, http.StatusOK, h.Service.BulkAddTags(r.Context(), req.IDs, req.Tags, actorID(r)))
}

func (h *LeadHandler) BulkRemoveTags(w http.ResponseWriter, r *http.Request) {
	var req bulkTagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON"})
		return
	}
	writeJSON(w, http.StatusOK, h.Service.BulkRemoveTags(r.Context(), req.IDs, req.Tags, actorID(r)))
}

type bulkAssignRequest struct {
	IDs        []string `json:"ids"`
	AssignedTo string   `json:"assigned_to"`
}

func (h *LeadHandler) BulkReassign(w http.ResponseWriter, r *http.Request) {
	var req bulkAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON"})
		return
	}
	writeJSON(w, http.StatusOK, h.Service.BulkReassign(r.Context(), req.IDs, req.AssignedTo, actorID(r)))
}

func (h *LeadHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req idsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON"})
		return
	}
	writeJSON(w, http.StatusOK, h.Service.BulkDelete(r.Context(), req.IDs, actorID(r)))
}

func (h *LeadHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	acts, err := h.Activities.ForLead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acts)
}

func (h *LeadHandler) CallLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Activities.CallLogs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

type bookingCallRequest struct {
	Phone  string `json:"phone"`
	Source string `json:"source"`
}

// BookingCall mirrors the booking-tool sync: a completed call arrives with
// only a phone number and gets logged against the matching lead.
func (h *LeadHandler) BookingCall(w http.ResponseWriter, r *http.Request) {
	var req bookingCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Invalid JSON"})
		return
	}
	if req.Source == "" {
		req.Source = "Booking"
	}

	matched, err := h.Activities.LogCallFromBooking(r.Context(), req.Phone, req.Source, entity.SystemActor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"matched": matched})
}
