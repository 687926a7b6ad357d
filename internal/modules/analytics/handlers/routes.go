package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all analytics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/v1/analytics/path", h.HandleAnalyzePath)
	r.Get("/api/runs/{uuid}/analytics", h.HandleAnalyzeRun)
}
