package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes registers all run routes. Patterns are registered flat so
// other modules can attach sub-resources under /api/runs/{uuid}.
func (h *Handler) RegisterRoutes(r chi.Router) {
	// Creating a run simulates the whole batch synchronously.
	r.With(middleware.Timeout(120 * time.Second)).Post("/api/runs", h.HandleCreate)

	r.Get("/api/runs", h.HandleList)
	r.Get("/api/runs/{uuid}", h.HandleGet)
	r.Get("/api/runs/{uuid}/paths", h.HandleGetPaths)
	r.Delete("/api/runs/{uuid}", h.HandleDelete)
}
