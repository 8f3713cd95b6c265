package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	appctx "github.com/ChrisThompsonK/team2-job-app-backend/internal/context"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/idcodec"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/metrics"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/repository"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/sanitizer"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/storage"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/validation"
)

// Application service errors
var (
	ErrNotFound          = errors.New("application not found")
	ErrRoleNotFound      = errors.New("job role not found")
	ErrRoleNotAccepting  = errors.New("job role is not accepting applications")
	ErrDuplicate         = errors.New("an application for this role and email already exists")
	ErrNotOwner          = errors.New("application belongs to someone else")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrCVNotFound        = errors.New("no CV stored for this application")
)

// MaxCVSizeBytes caps CV uploads at 5 MiB
const MaxCVSizeBytes = 5 << 20

// allowedCVMimeTypes lists accepted CV content types
var allowedCVMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// withdrawableStatuses are the states an applicant can leave on their
// own. Everything else is terminal for owner mutation.
var withdrawableStatuses = map[string]bool{
	repository.ApplicationStatusPending:     true,
	repository.ApplicationStatusUnderReview: true,
	repository.ApplicationStatusShortlisted: true,
}

// legalTransitions maps each status to the statuses an administrator
// may move it to. Terminal states have no outgoing edges.
var legalTransitions = map[string][]string{
	repository.ApplicationStatusPending: {
		repository.ApplicationStatusUnderReview,
		repository.ApplicationStatusShortlisted,
		repository.ApplicationStatusRejected,
		repository.ApplicationStatusHired,
	},
	repository.ApplicationStatusUnderReview: {
		repository.ApplicationStatusShortlisted,
		repository.ApplicationStatusRejected,
		repository.ApplicationStatusHired,
	},
	repository.ApplicationStatusShortlisted: {
		repository.ApplicationStatusRejected,
		repository.ApplicationStatusHired,
	},
}

// Service handles job application business logic
type Service struct {
	appRepo        repository.ApplicationRepository
	roleRepo       repository.JobRoleRepository
	storageService *storage.StorageService
	validator      *validation.Validator
	sanitizer      sanitizer.ContentSanitizer
	codec          *idcodec.Codec
	logger         *slog.Logger
	now            func() time.Time
}

// NewService creates a new application Service instance. The storage
// service may be nil when object storage is not configured; CV uploads
// are rejected in that case.
func NewService(
	appRepo repository.ApplicationRepository,
	roleRepo repository.JobRoleRepository,
	storageService *storage.StorageService,
	validator *validation.Validator,
	sanitizer sanitizer.ContentSanitizer,
	codec *idcodec.Codec,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		appRepo:        appRepo,
		roleRepo:       roleRepo,
		storageService: storageService,
		validator:      validator,
		sanitizer:      sanitizer,
		codec:          codec,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates and stores a new application. An authenticated
// principal becomes the owning account; their session email fills in
// for a missing applicantEmail.
func (s *Service) Submit(ctx context.Context, req SubmitRequest, cv *CVUpload, principal *appctx.Principal) (*ApplicationResponse, []validation.FieldError, error) {
	if principal != nil && req.ApplicantEmail == "" {
		req.ApplicantEmail = principal.Email
	}
	req.ApplicantEmail = validation.NormalizeEmail(req.ApplicantEmail)

	validationErrors := s.validator.Struct(req)
	validationErrors = append(validationErrors, validateCV(cv, s.storageService != nil)...)
	if len(validationErrors) > 0 {
		return nil, validationErrors, nil
	}

	roleID, ok := s.codec.Decode(req.JobRoleID)
	if !ok {
		return nil, nil, ErrRoleNotFound
	}

	role, err := s.roleRepo.GetByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, repository.ErrJobRoleNotFound) {
			return nil, nil, ErrRoleNotFound
		}
		return nil, nil, err
	}

	if !s.roleAccepting(role) {
		return nil, nil, ErrRoleNotAccepting
	}

	// Courtesy check; the unique index still decides under
	// concurrency.
	applied, err := s.appRepo.HasApplied(ctx, roleID, req.ApplicantEmail)
	if err != nil {
		return nil, nil, err
	}
	if applied {
		return nil, nil, ErrDuplicate
	}

	app := &repository.Application{
		JobRoleID:      roleID,
		ApplicantName:  s.sanitizer.SanitizeText(req.ApplicantName),
		ApplicantEmail: req.ApplicantEmail,
		Status:         repository.ApplicationStatusPending,
	}
	if principal != nil {
		accountID := principal.AccountID
		app.AccountID = &accountID
	}
	if req.CoverLetter != "" {
		coverLetter := s.sanitizer.SanitizeRichText(req.CoverLetter)
		app.CoverLetter = &coverLetter
	}

	if cv != nil {
		key, err := s.storageService.UploadCV(ctx, cv.Content, cv.ContentType)
		if err != nil {
			metrics.CVUploadsTotal.WithLabelValues("failure").Inc()
			return nil, nil, err
		}
		metrics.CVUploadsTotal.WithLabelValues("success").Inc()

		fileName := s.sanitizer.SanitizeText(cv.FileName)
		size := int64(len(cv.Content))
		contentType := cv.ContentType
		app.CVFileName = &fileName
		app.CVMimeType = &contentType
		app.CVSizeBytes = &size
		app.CVStorageKey = &key
	}

	if err := s.appRepo.Create(ctx, app); err != nil {
		if app.CVStorageKey != nil {
			// The application never existed, so its CV should not
			// either.
			if delErr := s.storageService.DeleteObject(ctx, *app.CVStorageKey); delErr != nil {
				s.logger.Warn("failed to clean up orphaned CV", "storage_key", *app.CVStorageKey, "error", delErr)
			}
		}
		if errors.Is(err, repository.ErrDuplicateApplication) {
			return nil, nil, ErrDuplicate
		}
		return nil, nil, err
	}

	metrics.ApplicationsSubmitted.Inc()
	s.logger.Info("application submitted", "application_id", app.ID, "job_role_id", roleID)

	return s.appResponse(app), nil, nil
}

// Withdraw flips an application to withdrawn on behalf of its owner.
// Only status and updated_at change; everything the applicant wrote is
// preserved.
func (s *Service) Withdraw(ctx context.Context, encodedID string, principal appctx.Principal) (*ApplicationResponse, error) {
	app, err := s.load(ctx, encodedID)
	if err != nil {
		return nil, err
	}

	if !s.owns(principal, app) {
		return nil, ErrNotOwner
	}

	if !withdrawableStatuses[app.Status] {
		return nil, ErrIllegalTransition
	}

	if err := s.appRepo.UpdateStatus(ctx, app.ID, repository.ApplicationStatusWithdrawn); err != nil {
		return nil, err
	}
	app.Status = repository.ApplicationStatusWithdrawn
	app.UpdatedAt = s.now()

	metrics.ApplicationsWithdrawn.Inc()
	s.logger.Info("application withdrawn", "application_id", app.ID)

	return s.appResponse(app), nil
}

// UpdateStatus applies an administrator status change, enforcing the
// transition graph.
func (s *Service) UpdateStatus(ctx context.Context, encodedID, newStatus string) (*ApplicationResponse, error) {
	app, err := s.load(ctx, encodedID)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(app.Status, newStatus) {
		return nil, ErrIllegalTransition
	}

	if err := s.appRepo.UpdateStatus(ctx, app.ID, newStatus); err != nil {
		return nil, err
	}
	app.Status = newStatus
	app.UpdatedAt = s.now()

	s.logger.Info("application status changed", "application_id", app.ID, "status", newStatus)

	return s.appResponse(app), nil
}

// Get returns a single application to an administrator or its owner
func (s *Service) Get(ctx context.Context, encodedID string, principal appctx.Principal) (*ApplicationResponse, error) {
	app, err := s.load(ctx, encodedID)
	if err != nil {
		return nil, err
	}

	if principal.Role != appctx.RoleAdmin && !s.owns(principal, app) {
		return nil, ErrNotOwner
	}

	return s.appResponse(app), nil
}

// List returns applications matching the filters (administrator only;
// the handler enforces the role gate).
func (s *Service) List(ctx context.Context, q ListQuery) ([]ApplicationResponse, error) {
	params := repository.ListApplicationParams{
		Status:         q.Status,
		ApplicantEmail: validation.NormalizeEmail(q.ApplicantEmail),
	}
	if q.JobRoleID != "" {
		roleID, ok := s.codec.Decode(q.JobRoleID)
		if !ok {
			// A token that never decoded was never issued, so nothing
			// can match it.
			return []ApplicationResponse{}, nil
		}
		params.JobRoleID = roleID
	}

	apps, err := s.appRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	responses := make([]ApplicationResponse, 0, len(apps))
	for i := range apps {
		responses = append(responses, *s.appResponse(&apps[i]))
	}
	return responses, nil
}

// CVLink returns a presigned download URL for the application's CV
func (s *Service) CVLink(ctx context.Context, encodedID string, principal appctx.Principal) (*CVLinkResponse, error) {
	app, err := s.load(ctx, encodedID)
	if err != nil {
		return nil, err
	}

	if principal.Role != appctx.RoleAdmin && !s.owns(principal, app) {
		return nil, ErrNotOwner
	}

	if app.CVStorageKey == nil || s.storageService == nil {
		return nil, ErrCVNotFound
	}

	url, expiry, err := s.storageService.GetPresignedURL(ctx, *app.CVStorageKey)
	if err != nil {
		return nil, err
	}

	return &CVLinkResponse{
		URL:              url,
		ExpiresInSeconds: int64(expiry.Seconds()),
	}, nil
}

func (s *Service) load(ctx context.Context, encodedID string) (*repository.Application, error) {
	id, ok := s.codec.Decode(encodedID)
	if !ok {
		return nil, ErrNotFound
	}

	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return app, nil
}

// owns reports whether the principal is the application's owner,
// either through the bound account or the recorded applicant email.
func (s *Service) owns(principal appctx.Principal, app *repository.Application) bool {
	if app.AccountID != nil && *app.AccountID == principal.AccountID {
		return true
	}
	return strings.EqualFold(principal.Email, app.ApplicantEmail)
}

func (s *Service) roleAccepting(role *repository.JobRole) bool {
	if role.Status != repository.JobRoleStatusActive {
		return false
	}
	if role.OpenPositions < 1 {
		return false
	}
	return !role.ClosingDate.Before(s.now())
}

func (s *Service) appResponse(app *repository.Application) *ApplicationResponse {
	encoded, _ := s.codec.Encode(app.ID)
	encodedRole, _ := s.codec.Encode(app.JobRoleID)

	resp := &ApplicationResponse{
		ID:             encoded,
		JobRoleID:      encodedRole,
		ApplicantName:  app.ApplicantName,
		ApplicantEmail: app.ApplicantEmail,
		Status:         app.Status,
		SubmittedAt:    app.SubmittedAt,
		UpdatedAt:      app.UpdatedAt,
	}
	if app.CoverLetter != nil {
		resp.CoverLetter = *app.CoverLetter
	}
	if app.CVFileName != nil && app.CVMimeType != nil && app.CVSizeBytes != nil {
		resp.CV = &CVResponse{
			FileName:  *app.CVFileName,
			MimeType:  *app.CVMimeType,
			SizeBytes: *app.CVSizeBytes,
		}
	}
	return resp
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// validateCV checks the uploaded file against type and size limits.
// A missing file is fine; applications without a CV are allowed.
func validateCV(cv *CVUpload, storageConfigured bool) []validation.FieldError {
	if cv == nil {
		return nil
	}

	var errs []validation.FieldError
	if !storageConfigured {
		return append(errs, validation.FieldError{
			Field:   "cv",
			Message: "CV uploads are not available",
		})
	}
	if !allowedCVMimeTypes[cv.ContentType] {
		errs = append(errs, validation.FieldError{
			Field:   "cv",
			Message: "CV must be a PDF or Word document",
		})
	}
	if len(cv.Content) == 0 {
		errs = append(errs, validation.FieldError{
			Field:   "cv",
			Message: "CV file is empty",
		})
	}
	if len(cv.Content) > MaxCVSizeBytes {
		errs = append(errs, validation.FieldError{
			Field:   "cv",
			Message: "CV must be 5 MB or smaller",
		})
	}
	return errs
}
