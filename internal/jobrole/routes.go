package jobrole

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Middleware is an interface for HTTP middleware
type Middleware func(http.Handler) http.Handler

// RegisterRoutes registers job role routes with the Chi router.
// Reads are public; mutations require the administrator role.
func RegisterRoutes(r chi.Router, handler *Handler, requireAdmin Middleware) {
	r.Route("/job-roles", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Get("/{id}", handler.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/", handler.Create)
			r.Put("/{id}", handler.Update)
			r.Delete("/{id}", handler.Delete)
		})
	})
}
