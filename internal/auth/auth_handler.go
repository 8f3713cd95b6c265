package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ChrisThompsonK/team2-job-app-backend/internal/api"
	appctx "github.com/ChrisThompsonK/team2-job-app-backend/internal/context"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/validation"
)

// CookieConfig controls how the session cookie is issued
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler handles HTTP requests for authentication endpoints
type AuthHandler struct {
	authService *AuthService
	cookie      CookieConfig
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(authService *AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
	}
}

// Register handles account registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req validation.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, CodeValidationError, "Invalid request body", nil)
		return
	}

	account, validationErrors, err := h.authService.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			api.WriteError(w, http.StatusConflict, CodeEmailExists, "An account with this email already exists", nil)
			return
		}
		api.WriteError(w, http.StatusInternalServerError, CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	if len(validationErrors) > 0 {
		api.WriteError(w, http.StatusBadRequest, CodeValidationError, "Request validation failed", validation.Details(validationErrors))
		return
	}

	api.WriteSuccess(w, http.StatusCreated, map[string]interface{}{
		"account": account,
	})
}

// Login handles authentication and sets the session cookie
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req validation.LoginInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, CodeValidationError, "Invalid request body", nil)
		return
	}

	account, session, validationErrors, err := h.authService.Login(r.Context(), req, api.ClientIP(r), r.UserAgent())
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			api.WriteError(w, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password", nil)
			return
		}
		api.WriteError(w, http.StatusInternalServerError, CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	if len(validationErrors) > 0 {
		api.WriteError(w, http.StatusBadRequest, CodeValidationError, "Request validation failed", validation.Details(validationErrors))
		return
	}

	http.SetCookie(w, h.sessionCookie(session.Token, session.ExpiresAt))

	api.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"account": account,
	})
}

// Logout destroys the current session and clears the cookie
// POST /api/v1/auth/logout
//
// Always succeeds: logging out without a valid session leaves the
// client exactly where it wanted to be.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cookie.Name); err == nil {
		if err := h.authService.Logout(r.Context(), cookie.Value); err != nil {
			api.WriteError(w, http.StatusInternalServerError, CodeInternalError, "An unexpected error occurred", nil)
			return
		}
	}

	http.SetCookie(w, h.expiredCookie())

	api.WriteSuccess(w, http.StatusOK, map[string]string{
		"message": "Successfully logged out",
	})
}

// GetMe returns the authenticated account's profile
// GET /api/v1/auth/me
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := appctx.ExtractPrincipal(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, CodeAuthRequired, "Authentication required", nil)
		return
	}

	account, err := h.authService.GetProfile(r.Context(), principal.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			api.WriteError(w, http.StatusUnauthorized, CodeAuthRequired, "Authentication required", nil)
			return
		}
		api.WriteError(w, http.StatusInternalServerError, CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"account": account,
	})
}

func (h *AuthHandler) sessionCookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
