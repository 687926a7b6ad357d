// Package handlers provides HTTP handlers for path and run analytics.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/pathsim/internal/modules/analytics"
	"github.com/aristath/pathsim/internal/modules/runs"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles analytics HTTP requests
type Handler struct {
	service *analytics.Service
	log     zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// HandleAnalyzePath handles POST /api/v1/analytics/path
func (h *Handler) HandleAnalyzePath(w http.ResponseWriter, r *http.Request) {
	var req analytics.PathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.service.AnalyzePath(req)
	if err != nil {
		if errors.Is(err, analytics.ErrEmptySeries) {
			h.writeError(w, http.StatusBadRequest, "Values must not be empty")
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Analysis failed: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleAnalyzeRun handles GET /api/runs/{uuid}/analytics
func (h *Handler) HandleAnalyzeRun(w http.ResponseWriter, r *http.Request) {
	runUUID := chi.URLParam(r, "uuid")

	result, err := h.service.AnalyzeRun(runUUID)
	if err != nil {
		if errors.Is(err, runs.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Analysis failed: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
