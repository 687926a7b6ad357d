// Package handlers provides HTTP handlers for path simulation.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aristath/pathsim/internal/abm"
	"github.com/aristath/pathsim/internal/modules/simulation"
	"github.com/rs/zerolog"
)

// Limits caps request sizes to prevent resource exhaustion.
type Limits struct {
	MaxPathCount int
	MaxSteps     int
}

// Handler handles simulation HTTP requests
type Handler struct {
	service *simulation.Service
	limits  Limits
	log     zerolog.Logger
}

// NewHandler creates a new simulation handler
func NewHandler(service *simulation.Service, limits Limits, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		limits:  limits,
		log:     log.With().Str("handler", "simulation").Logger(),
	}
}

// HandleSimulate handles POST /api/v1/simulate
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r, h.limits.MaxPathCount)
	if !ok {
		return
	}

	startTime := time.Now()
	result, summary, err := h.service.Simulate(req.ToModel())
	if err != nil {
		h.writeSimulationError(w, err)
		return
	}
	elapsed := time.Since(startTime)

	h.log.Info().
		Int("path_count", req.PathCount).
		Int("steps", req.Steps).
		Dur("elapsed", elapsed).
		Msg("Simulate request completed")

	h.writeJSON(w, http.StatusOK, simulation.SimulateResponse{
		Paths:     result.Paths,
		Failures:  result.Failures,
		Summary:   summary,
		ElapsedMS: elapsed.Milliseconds(),
	})
}

// HandleSimulateSummary handles POST /api/v1/simulate/summary
//
// Same semantics as HandleSimulate but only the terminal statistics are
// returned, so the path cap is 20x higher.
func (h *Handler) HandleSimulateSummary(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeRequest(w, r, h.limits.MaxPathCount*20)
	if !ok {
		return
	}

	startTime := time.Now()
	result, summary, err := h.service.Simulate(req.ToModel())
	if err != nil {
		h.writeSimulationError(w, err)
		return
	}
	elapsed := time.Since(startTime)

	h.writeJSON(w, http.StatusOK, simulation.SummaryResponse{
		Summary:   summary,
		Failures:  result.Failures,
		ElapsedMS: elapsed.Milliseconds(),
	})
}

// decodeRequest parses and bounds-checks the request body. Structural
// validation of the model parameters themselves happens in the core.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request, maxPaths int) (simulation.SimulateRequest, bool) {
	var req simulation.SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return req, false
	}

	if req.PathCount > maxPaths {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Too many paths (max %d)", maxPaths))
		return req, false
	}
	if req.Steps > h.limits.MaxSteps {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Too many steps (max %d)", h.limits.MaxSteps))
		return req, false
	}

	return req, true
}

// writeSimulationError maps core errors onto HTTP statuses. Invalid
// parameters are the caller's fault and name the offending field.
func (h *Handler) writeSimulationError(w http.ResponseWriter, err error) {
	var invalid *abm.InvalidParameterError
	if errors.As(err, &invalid) {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": invalid.Error(),
			"field": invalid.Field,
		})
		return
	}
	h.writeError(w, http.StatusInternalServerError, "Simulation failed: "+err.Error())
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
