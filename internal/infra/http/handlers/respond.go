package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mastry/crm-backend/internal/usecase"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps engine errors onto HTTP statuses. Domain errors carry a
// stable code the frontend can branch on; everything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		writeJSON(w, statusForCode(de.Code), ErrorResponse{Code: de.Code, Message: de.Message})
		return
	}

	var ae *usecase.AutomationError
	if errors.As(err, &ae) {
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Code: ae.Code, Message: ae.Error()})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
}

func statusForCode(code string) int {
	switch code {
	case usecase.CodeNotFound:
		return http.StatusNotFound
	case usecase.CodeValidation:
		return http.StatusBadRequest
	case usecase.CodeDuplicateLead, usecase.CodeConflict, usecase.CodeLastSuperAdmin:
		return http.StatusConflict
	}
	return http.StatusBadRequest
}
