package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all statistics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/statistics", func(r chi.Router) {
		r.Post("/run", h.HandleRun)
		r.Get("/composites/parse", h.HandleParseComposite)
		r.Get("/entities", h.HandleListEntities)
	})
}
