package handlers

import (
	"io"
	"net/http"

	"github.com/mastry/crm-backend/internal/usecase"
)

type SystemHandler struct {
	Backup *usecase.BackupService
}

func NewSystemHandler(backup *usecase.BackupService) *SystemHandler {
	return &SystemHandler{Backup: backup}
}

func (h *SystemHandler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	data, err := h.Backup.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="crm-backup.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *SystemHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 50<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "Could not read backup payload"})
		return
	}

	if err := h.Backup.Restore(r.Context(), data); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *SystemHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.Backup.Metrics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}
