package application

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Middleware is an interface for HTTP middleware
type Middleware func(http.Handler) http.Handler

// RegisterRoutes registers application routes with the Chi router.
// Submission and withdrawal work with or without a session; reads are
// session-gated; listing and status changes are administrator only.
func RegisterRoutes(r chi.Router, handler *Handler, optionalSession, requireSession, requireAdmin Middleware) {
	r.Route("/applications", func(r chi.Router) {
		r.With(optionalSession).Post("/", handler.Submit)
		r.With(optionalSession).Post("/{id}/withdraw", handler.Withdraw)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Get("/{id}", handler.Get)
			r.Get("/{id}/cv", handler.GetCV)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/", handler.List)
			r.Patch("/{id}/status", handler.UpdateStatus)
		})
	})
}
