package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"hangmantrainer/internal/models"
	"hangmantrainer/internal/service"
	"hangmantrainer/internal/validation"
)

// AdminHandler handles word configuration and result administration
type AdminHandler struct {
	admin  *service.AdminService
	backup *service.BackupService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin *service.AdminService, backup *service.BackupService) *AdminHandler {
	return &AdminHandler{admin: admin, backup: backup}
}

type successResponse struct {
	Success bool `json:"success"`
}

// GetWords returns the configured word list
func (h *AdminHandler) GetWords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.Words())
}

// UpdateWords replaces the word list with the request body
func (h *AdminHandler) UpdateWords(w http.ResponseWriter, r *http.Request) {
	var entries []models.WordEntry
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&entries); err != nil {
		respondWithJSONError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	err := h.admin.UpdateWords(r.Context(), GetAdminCredential(r.Context()), entries)
	var verr validation.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
		return
	case err != nil:
		respondWithJSONError(w, http.StatusBadGateway, "Failed to save word configuration", "Error updating words", err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Results returns every stored result
func (h *AdminHandler) Results(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.Results())
}

// Summary returns aggregate statistics
func (h *AdminHandler) Summary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.Summary())
}

// Report downloads the consolidated text report
func (h *AdminHandler) Report(w http.ResponseWriter, r *http.Request) {
	filename, body := h.admin.Report()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Write([]byte(body))
}

// ClearResults deletes every stored result
func (h *AdminHandler) ClearResults(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.ClearResults(r.Context()); err != nil {
		respondWithJSONError(w, http.StatusInternalServerError, "Failed to clear results", "Error clearing results", err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// ExportDatabase exports both persisted documents as a JSON download
func (h *AdminHandler) ExportDatabase(w http.ResponseWriter, r *http.Request) {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("hangman_backup_%s.json", timestamp)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if _, err := h.backup.ExportToWriter(r.Context(), w); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to export database", "Error exporting database", err)
		return
	}

	log.Info().Str("ip", r.RemoteAddr).Msg("Database exported by admin")
}
