package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ChrisThompsonK/team2-job-app-backend/internal/auth"
	appctx "github.com/ChrisThompsonK/team2-job-app-backend/internal/context"
)

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     ErrorDetail `json:"error"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SessionMiddleware authenticates requests via the session cookie.
// An expired or unknown session is indistinguishable from no session
// at all: both produce the same 401.
type SessionMiddleware struct {
	sessions   *auth.SessionService
	cookieName string
}

// NewSessionMiddleware creates a new SessionMiddleware instance
func NewSessionMiddleware(sessions *auth.SessionService, cookieName string) *SessionMiddleware {
	return &SessionMiddleware{
		sessions:   sessions,
		cookieName: cookieName,
	}
}

// RequireSession resolves the session cookie to a principal and
// injects it into the request context. Requests without a live
// session get 401.
func (m *SessionMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(m.cookieName)
		if err != nil || cookie.Value == "" {
			writeAuthError(w, http.StatusUnauthorized, auth.CodeAuthRequired, "Authentication required")
			return
		}

		principal, ok, err := m.sessions.Resolve(r.Context(), cookie.Value)
		if err != nil {
			writeAuthError(w, http.StatusInternalServerError, auth.CodeInternalError, "An unexpected error occurred")
			return
		}
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, auth.CodeAuthRequired, "Authentication required")
			return
		}

		next.ServeHTTP(w, r.WithContext(appctx.WithPrincipal(r.Context(), principal)))
	})
}

// OptionalSession resolves the session cookie when one is present and
// otherwise lets the request through anonymously. Resolution failures
// are treated as no session; the handler decides what anonymity means.
func (m *SessionMiddleware) OptionalSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(m.cookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		principal, ok, err := m.sessions.Resolve(r.Context(), cookie.Value)
		if err != nil || !ok {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(appctx.WithPrincipal(r.Context(), principal)))
	})
}

// RequireRole gates a route on the principal's role. Unauthenticated
// requests get 401; authenticated requests with the wrong role get
// 403 — the distinction tells the client whether logging in would
// help.
func (m *SessionMiddleware) RequireRole(role appctx.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := appctx.ExtractPrincipal(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, auth.CodeAuthRequired, "Authentication required")
				return
			}
			if principal.Role != role {
				writeAuthError(w, http.StatusForbidden, auth.CodeForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// writeAuthError writes a JSON error response
func writeAuthError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now().UTC(),
	}

	json.NewEncoder(w).Encode(response)
}
