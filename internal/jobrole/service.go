package jobrole

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ChrisThompsonK/team2-job-app-backend/internal/api"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/idcodec"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/repository"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/sanitizer"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/validation"
)

// Job role service errors
var (
	ErrNotFound = errors.New("job role not found")
)

// Pagination defaults
const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// closingDateFormats are accepted on input; responses always use
// RFC 3339.
var closingDateFormats = []string{time.RFC3339, "2006-01-02"}

// Service handles job role business logic
type Service struct {
	roleRepo  repository.JobRoleRepository
	validator *validation.Validator
	sanitizer sanitizer.ContentSanitizer
	codec     *idcodec.Codec
	logger    *slog.Logger
}

// NewService creates a new job role Service instance
func NewService(
	roleRepo repository.JobRoleRepository,
	validator *validation.Validator,
	sanitizer sanitizer.ContentSanitizer,
	codec *idcodec.Codec,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		roleRepo:  roleRepo,
		validator: validator,
		sanitizer: sanitizer,
		codec:     codec,
		logger:    logger,
	}
}

// Create validates and stores a new job role
func (s *Service) Create(ctx context.Context, req JobRoleRequest) (*JobRoleResponse, []validation.FieldError, error) {
	role, validationErrors := s.buildRole(req)
	if len(validationErrors) > 0 {
		return nil, validationErrors, nil
	}

	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, nil, err
	}

	s.logger.Info("job role created", "job_role_id", role.ID, "name", role.Name)

	return s.roleResponse(role), nil, nil
}

// Get returns a single job role by its obfuscated id. Tokens that do
// not decode are indistinguishable from ids that were never issued.
func (s *Service) Get(ctx context.Context, encodedID string) (*JobRoleResponse, error) {
	id, ok := s.codec.Decode(encodedID)
	if !ok {
		return nil, ErrNotFound
	}

	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrJobRoleNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s.roleResponse(role), nil
}

// List returns a page of job roles with pagination metadata
func (s *Service) List(ctx context.Context, q ListQuery) (*ListJobRolesResponse, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	params := repository.ListJobRoleParams{
		Status:     q.Status,
		Capability: q.Capability,
		Band:       q.Band,
		Location:   q.Location,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}

	total, err := s.roleRepo.Count(ctx, params)
	if err != nil {
		return nil, err
	}

	roles, err := s.roleRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	responses := make([]JobRoleResponse, 0, len(roles))
	for i := range roles {
		responses = append(responses, *s.roleResponse(&roles[i]))
	}

	return &ListJobRolesResponse{
		JobRoles:   responses,
		Pagination: api.NewPaginationInfo(page, limit, int64(total)),
	}, nil
}

// Update validates and replaces an existing job role
func (s *Service) Update(ctx context.Context, encodedID string, req JobRoleRequest) (*JobRoleResponse, []validation.FieldError, error) {
	id, ok := s.codec.Decode(encodedID)
	if !ok {
		return nil, nil, ErrNotFound
	}

	role, validationErrors := s.buildRole(req)
	if len(validationErrors) > 0 {
		return nil, validationErrors, nil
	}
	role.ID = id

	if err := s.roleRepo.Update(ctx, role); err != nil {
		if errors.Is(err, repository.ErrJobRoleNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	s.logger.Info("job role updated", "job_role_id", id)

	// Re-read the row so the response carries the stored createdAt.
	stored, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return s.roleResponse(stored), nil, nil
}

// Delete removes a job role
func (s *Service) Delete(ctx context.Context, encodedID string) error {
	id, ok := s.codec.Decode(encodedID)
	if !ok {
		return ErrNotFound
	}

	if err := s.roleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrJobRoleNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.logger.Info("job role deleted", "job_role_id", id)

	return nil
}

// buildRole validates the request and maps it to a repository model
func (s *Service) buildRole(req JobRoleRequest) (*repository.JobRole, []validation.FieldError) {
	validationErrors := s.validator.Struct(req)

	closingDate, err := parseClosingDate(req.ClosingDate)
	if req.ClosingDate != "" && err != nil {
		validationErrors = append(validationErrors, validation.FieldError{
			Field:   "closingDate",
			Message: "closingDate must be a valid date",
		})
	}

	if len(validationErrors) > 0 {
		return nil, validationErrors
	}

	status := req.Status
	if status == "" {
		status = repository.JobRoleStatusDraft
	}
	openPositions := req.OpenPositions
	if openPositions == 0 {
		openPositions = 1
	}

	return &repository.JobRole{
		Name:             s.sanitizer.SanitizeText(req.Name),
		Description:      s.sanitizer.SanitizeRichText(req.Description),
		Responsibilities: s.sanitizer.SanitizeRichText(req.Responsibilities),
		JobSpecLink:      s.sanitizer.SanitizeText(req.JobSpecLink),
		Location:         s.sanitizer.SanitizeText(req.Location),
		Capability:       s.sanitizer.SanitizeText(req.Capability),
		Band:             s.sanitizer.SanitizeText(req.Band),
		ClosingDate:      closingDate,
		Status:           status,
		OpenPositions:    openPositions,
	}, nil
}

func (s *Service) roleResponse(role *repository.JobRole) *JobRoleResponse {
	encoded, _ := s.codec.Encode(role.ID)
	return &JobRoleResponse{
		ID:               encoded,
		Name:             role.Name,
		Description:      role.Description,
		Responsibilities: role.Responsibilities,
		JobSpecLink:      role.JobSpecLink,
		Location:         role.Location,
		Capability:       role.Capability,
		Band:             role.Band,
		ClosingDate:      role.ClosingDate,
		Status:           role.Status,
		OpenPositions:    role.OpenPositions,
		CreatedAt:        role.CreatedAt,
		UpdatedAt:        role.UpdatedAt,
	}
}

func parseClosingDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range closingDateFormats {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
