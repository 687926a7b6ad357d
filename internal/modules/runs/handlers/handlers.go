// Package handlers provides HTTP handlers for stored simulation runs.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/aristath/pathsim/internal/abm"
	"github.com/aristath/pathsim/internal/modules/runs"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Limits caps request sizes to prevent resource exhaustion.
type Limits struct {
	MaxPathCount int
	MaxSteps     int
}

// Handler handles run HTTP requests
type Handler struct {
	service *runs.Service
	limits  Limits
	log     zerolog.Logger
}

// NewHandler creates a new runs handler
func NewHandler(service *runs.Service, limits Limits, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		limits:  limits,
		log:     log.With().Str("handler", "runs").Logger(),
	}
}

// createRunResponse wraps a stored run together with its terminal summary.
type createRunResponse struct {
	Run     *runs.Run    `json:"run"`
	Summary *abm.Summary `json:"summary,omitempty"`
}

// HandleCreate handles POST /api/runs
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req runs.CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.PathCount > h.limits.MaxPathCount {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Too many paths (max %d)", h.limits.MaxPathCount))
		return
	}
	if req.Steps > h.limits.MaxSteps {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Too many steps (max %d)", h.limits.MaxSteps))
		return
	}

	run, summary, err := h.service.Create(req)
	if err != nil {
		var invalid *abm.InvalidParameterError
		if errors.As(err, &invalid) {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": invalid.Error(),
				"field": invalid.Field,
			})
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to create run: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, createRunResponse{Run: run, Summary: summary})
}

// HandleList handles GET /api/runs?limit=N
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	list, err := h.service.List(limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list runs: "+err.Error())
		return
	}
	if list == nil {
		list = []runs.Run{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  list,
		"count": len(list),
	})
}

// HandleGet handles GET /api/runs/{uuid}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	runUUID := chi.URLParam(r, "uuid")

	run, err := h.service.Get(runUUID)
	if err != nil {
		if errors.Is(err, runs.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to get run: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, run)
}

// HandleGetPaths handles GET /api/runs/{uuid}/paths
func (h *Handler) HandleGetPaths(w http.ResponseWriter, r *http.Request) {
	runUUID := chi.URLParam(r, "uuid")

	paths, err := h.service.GetPaths(runUUID)
	if err != nil {
		if errors.Is(err, runs.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to get paths: "+err.Error())
		return
	}
	if paths == nil {
		paths = []abm.Path{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"uuid":  runUUID,
		"paths": paths,
	})
}

// HandleDelete handles DELETE /api/runs/{uuid}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	runUUID := chi.URLParam(r, "uuid")

	if err := h.service.Delete(runUUID); err != nil {
		if errors.Is(err, runs.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Run not found")
			return
		}
		h.writeError(w, http.StatusInternalServerError, "Failed to delete run: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"uuid":   runUUID,
	})
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
