package jobrole

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ChrisThompsonK/team2-job-app-backend/internal/api"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/auth"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/validation"
)

// Error codes for job role operations
const (
	CodeJobRoleNotFound = "JOB_ROLE_NOT_FOUND"
)

// Handler handles HTTP requests for job role endpoints
type Handler struct {
	service *Service
}

// NewHandler creates a new job role Handler instance
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles listing job roles with filters and pagination
// GET /api/v1/job-roles
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := ListQuery{
		Page:       parseIntParam(r, "page", 1),
		Limit:      parseIntParam(r, "limit", DefaultPageSize),
		Status:     r.URL.Query().Get("status"),
		Capability: r.URL.Query().Get("capability"),
		Band:       r.URL.Query().Get("band"),
		Location:   r.URL.Query().Get("location"),
	}

	response, err := h.service.List(r.Context(), q)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, auth.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, response)
}

// Get handles fetching a single job role
// GET /api/v1/job-roles/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, CodeJobRoleNotFound, "Job role not found", nil)
			return
		}
		api.WriteError(w, http.StatusInternalServerError, auth.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"jobRole": role,
	})
}

// Create handles creating a job role
// POST /api/v1/job-roles
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req JobRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, auth.CodeValidationError, "Invalid request body", nil)
		return
	}

	role, validationErrors, err := h.service.Create(r.Context(), req)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, auth.CodeInternalError, "An unexpected error occurred", nil)
		return
	}
	if len(validationErrors) > 0 {
		api.WriteError(w, http.StatusBadRequest, auth.CodeValidationError, "Request validation failed", validation.Details(validationErrors))
		return
	}

	api.WriteSuccess(w, http.StatusCreated, map[string]interface{}{
		"jobRole": role,
	})
}

// Update handles replacing a job role
// PUT /api/v1/job-roles/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req JobRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, auth.CodeValidationError, "Invalid request body", nil)
		return
	}

	role, validationErrors, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, CodeJobRoleNotFound, "Job role not found", nil)
			return
		}
		api.WriteError(w, http.StatusInternalServerError, auth.CodeInternalError, "An unexpected error occurred", nil)
		return
	}
	if len(validationErrors) > 0 {
		api.WriteError(w, http.StatusBadRequest, auth.CodeValidationError, "Request validation failed", validation.Details(validationErrors))
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"jobRole": role,
	})
}

// Delete handles removing a job role
// DELETE /api/v1/job-roles/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, CodeJobRoleNotFound, "Job role not found", nil)
			return
		}
		api.WriteError(w, http.StatusInternalServerError, auth.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]string{
		"message": "Job role deleted",
	})
}

// parseIntParam reads a positive integer query parameter with a default
func parseIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
