package application

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ChrisThompsonK/team2-job-app-backend/internal/api"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/auth"
	appctx "github.com/ChrisThompsonK/team2-job-app-backend/internal/context"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/validation"
)

// Error codes for application operations
const (
	CodeApplicationNotFound = "APPLICATION_NOT_FOUND"
	CodeRoleNotAccepting    = "ROLE_NOT_ACCEPTING"
	CodeDuplicate           = "DUPLICATE_APPLICATION"
	CodeIllegalTransition   = "ILLEGAL_STATUS_TRANSITION"
	CodeCVNotFound          = "CV_NOT_FOUND"
)

// maxSubmitBytes bounds the whole multipart body: the CV limit plus
// headroom for the text fields.
const maxSubmitBytes = MaxCVSizeBytes + 1<<20

// Handler handles HTTP requests for application endpoints
type Handler struct {
	service *Service
}

// NewHandler creates a new application Handler instance
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Submit handles a multipart application submission
// POST /api/v1/applications
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBytes)
	if err := r.ParseMultipartForm(maxSubmitBytes); err != nil {
		api.WriteError(w, http.StatusBadRequest, auth.CodeValidationError, "Invalid multipart request body", nil)
		return
	}

	req := SubmitRequest{
		JobRoleID:      r.FormValue("jobRoleId"),
		ApplicantName:  r.FormValue("applicantName"),
		ApplicantEmail: r.FormValue("applicantEmail"),
		CoverLetter:    r.FormValue("coverLetter"),
	}

	cv, err := readCVPart(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, auth.CodeValidationError, "Unable to read CV upload", nil)
		return
	}

	var principal *appctx.Principal
	if p, ok := appctx.ExtractPrincipal(r.Context()); ok {
		principal = &p
	}

	app, validationErrors, err := h.service.Submit(r.Context(), req, cv, principal)
	if err != nil {
		switch {
		case errors.Is(err, ErrRoleNotFound):
			api.WriteError(w, http.StatusNotFound, CodeApplicationNotFound, "Job role not found", nil)
		case errors.Is(err, ErrRoleNotAccepting):
			api.WriteError(w, http.StatusBadRequest, CodeRoleNotAccepting, "This role is not accepting applications", nil)
		case errors.Is(err, ErrDuplicate):
			api.WriteError(w, http.StatusConflict, CodeDuplicate, "An application for this role already exists", nil)
		default:
			api.WriteError(w, http.StatusInternalServerError, auth.CodeInternalError, "An unexpected error occurred", nil)
		}
		return
	}
	if len(validationErrors) > 0 {
		api.WriteError(w, http.StatusBadRequest, auth.CodeValidationError, "Request validation failed", validation.Details(validationErrors))
		return
	}

	api.WriteSuccess(w, http.StatusCreated, map[string]interface{}{
		"application": app,
	})
}

// Withdraw handles an owner withdrawing their application
// POST /api/v1/applications/{id}/withdraw
//
// Sessionless clients may act on an application they submitted
// anonymously by restating the applicant email.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	principal, ok := appctx.ExtractPrincipal(r.Context())
	if !ok {
		var body struct {
			ApplicantEmail string `json:"applicantEmail"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ApplicantEmail == "" {
			api.WriteError(w, http.StatusUnauthorized, auth.CodeAuthRequired, "Authentication required", nil)
			return
		}
		principal = appctx.Principal{Email: validation.NormalizeEmail(body.ApplicantEmail)}
	}

	app, err := h.service.Withdraw(r.Context(), chi.URLParam(r, "id"), principal)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"application": app,
	})
}

// UpdateStatus handles an administrator status change
// PATCH /api/v1/applications/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, auth.CodeValidationError, "Invalid request body", nil)
		return
	}
	if validationErrors := h.service.validator.Struct(req); len(validationErrors) > 0 {
		api.WriteError(w, http.StatusBadRequest, auth.CodeValidationError, "Request validation failed", validation.Details(validationErrors))
		return
	}

	app, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"application": app,
	})
}

// Get handles fetching a single application
// GET /api/v1/applications/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := appctx.ExtractPrincipal(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, auth.CodeAuthRequired, "Authentication required", nil)
		return
	}

	app, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), principal)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"application": app,
	})
}

// List handles the administrator application listing
// GET /api/v1/applications
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := ListQuery{
		Status:         r.URL.Query().Get("status"),
		JobRoleID:      r.URL.Query().Get("jobRoleId"),
		ApplicantEmail: r.URL.Query().Get("applicantEmail"),
	}

	apps, err := h.service.List(r.Context(), q)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, auth.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"applications": apps,
	})
}

// GetCV handles fetching a time-limited CV download link
// GET /api/v1/applications/{id}/cv
func (h *Handler) GetCV(w http.ResponseWriter, r *http.Request) {
	principal, ok := appctx.ExtractPrincipal(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, auth.CodeAuthRequired, "Authentication required", nil)
		return
	}

	link, err := h.service.CVLink(r.Context(), chi.URLParam(r, "id"), principal)
	if err != nil {
		if errors.Is(err, ErrCVNotFound) {
			api.WriteError(w, http.StatusNotFound, CodeCVNotFound, "No CV stored for this application", nil)
			return
		}
		h.writeServiceError(w, err)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"cv": link,
	})
}

// writeServiceError maps shared service errors to HTTP responses
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, CodeApplicationNotFound, "Application not found", nil)
	case errors.Is(err, ErrNotOwner):
		api.WriteError(w, http.StatusForbidden, auth.CodeForbidden, "You do not have access to this application", nil)
	case errors.Is(err, ErrIllegalTransition):
		api.WriteError(w, http.StatusConflict, CodeIllegalTransition, "The application status does not allow this change", nil)
	default:
		api.WriteError(w, http.StatusInternalServerError, auth.CodeInternalError, "An unexpected error occurred", nil)
	}
}

// readCVPart extracts the optional CV file from the multipart form
func readCVPart(r *http.Request) (*CVUpload, error) {
	file, header, err := r.FormFile("cv")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	contentType := header.Header.Get("Content-Type")

	return &CVUpload{
		FileName:    header.Filename,
		ContentType: contentType,
		Content:     content,
	}, nil
}
