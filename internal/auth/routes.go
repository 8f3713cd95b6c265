package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Middleware is an interface for HTTP middleware
type Middleware func(http.Handler) http.Handler

// RegisterRoutes registers all authentication routes with the Chi router.
// Public routes: /register, /login, /logout
// Protected routes: /me
//
// Logout is public on purpose: it must succeed for clients holding a
// stale or missing cookie.
func RegisterRoutes(r chi.Router, handler *AuthHandler, sessionMiddleware Middleware, loginRateLimit Middleware) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", handler.Register)
		r.With(loginRateLimit).Post("/login", handler.Login)
		r.Post("/logout", handler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware)
			r.Get("/me", handler.GetMe)
		})
	})
}
