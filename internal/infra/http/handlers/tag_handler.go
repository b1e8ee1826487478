package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mastry/crm-backend/internal/usecase"
)

type TagHandler struct {
	Service *usecase.TagService
}

func NewTagHandler(service *usecase.TagService) *TagHandler {
	return &TagHandler{Service: service}
}

func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

type tagRequest struct {
	Name string `json:"name"`
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "tag name is required"})
		return
	}

	if err := h.Service.Create(r.Context(), req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

type renameTagRequest struct {
	Old string `json:"old"`
	New string `json:"new"`
}

func (h *TagHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req renameTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Old == "" || req.New == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "old and new tag names are required"})
		return
	}

	if err := h.Service.Rename(r.Context(), req.Old, req.New, actorID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *TagHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req renameTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Old == "" || req.New == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "old and new tag names are required"})
		return
	}

	if err := h.Service.Merge(r.Context(), req.Old, req.New, actorID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "tag name is required"})
		return
	}

	if err := h.Service.Delete(r.Context(), req.Name, actorID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
