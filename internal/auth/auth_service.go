package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	appctx "github.com/ChrisThompsonK/team2-job-app-backend/internal/context"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/idcodec"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/metrics"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/repository"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/validation"
)

// Auth service errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountDisabled    = errors.New("account is disabled")
)

// Error codes for API responses
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeTooManyAttempts    = "TOO_MANY_ATTEMPTS"
	CodeAuthRequired       = "AUTH_REQUIRED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
)

// AccountResponse represents the account data in responses. The ID is
// the obfuscated public form, never the row id.
type AccountResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Forename  string     `json:"forename"`
	Surname   string     `json:"surname"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// SessionResult carries a freshly issued session back to the handler
// so it can set the cookie. The raw token never touches the database.
type SessionResult struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService handles authentication business logic
type AuthService struct {
	accountRepo       repository.AccountRepository
	sessionService    *SessionService
	passwordValidator *PasswordValidator
	validator         *validation.Validator
	codec             *idcodec.Codec
	logger            *slog.Logger
}

// NewAuthService creates a new AuthService instance
func NewAuthService(
	accountRepo repository.AccountRepository,
	sessionService *SessionService,
	passwordValidator *PasswordValidator,
	validator *validation.Validator,
	codec *idcodec.Codec,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		accountRepo:       accountRepo,
		sessionService:    sessionService,
		passwordValidator: passwordValidator,
		validator:         validator,
		codec:             codec,
		logger:            logger,
	}
}

// Register creates a new applicant account. All validation failures
// are collected into one response rather than reported one at a time.
func (s *AuthService) Register(ctx context.Context, req validation.RegisterInput) (*AccountResponse, []validation.FieldError, error) {
	req.Email = validation.NormalizeEmail(req.Email)

	validationErrors := s.validator.Struct(req)
	if req.Password != "" {
		validationErrors = append(validationErrors, s.passwordFieldErrors(req.Password)...)
	}
	if len(validationErrors) > 0 {
		return nil, validationErrors, nil
	}

	passwordHash, err := s.passwordValidator.HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	// Self-service registration always yields an applicant. Admins are
	// provisioned out of band.
	account := &repository.Account{
		Email:        req.Email,
		PasswordHash: passwordHash,
		Forename:     req.Forename,
		Surname:      req.Surname,
		Role:         appctx.RoleApplicant,
		IsActive:     true,
	}

	// The unique index is the arbiter for concurrent registrations with
	// the same email; there is no pre-check to race against.
	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrEmailAlreadyExists) {
			return nil, nil, ErrEmailExists
		}
		return nil, nil, err
	}

	metrics.RegistrationsTotal.Inc()
	s.logger.Info("account registered", "account_id", account.ID)

	return s.accountResponse(account), nil, nil
}

// Login authenticates an account and issues a session. Malformed input
// is reported as an itemized validation failure before any credential
// work; every failure past that point reports the same error so
// responses never reveal whether the email is registered.
func (s *AuthService) Login(ctx context.Context, req validation.LoginInput, ipAddress, userAgent string) (*AccountResponse, *SessionResult, []validation.FieldError, error) {
	req.Email = validation.NormalizeEmail(req.Email)

	if validationErrors := s.validator.Struct(req); len(validationErrors) > 0 {
		return nil, nil, validationErrors, nil
	}

	account, err := s.accountRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			// Burn a bcrypt verification anyway so response timing does
			// not distinguish unknown emails from wrong passwords.
			s.passwordValidator.VerifyPassword(req.Password, dummyPasswordHash)
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return nil, nil, nil, ErrInvalidCredentials
		}
		return nil, nil, nil, err
	}

	if !s.passwordValidator.VerifyPassword(req.Password, account.PasswordHash) {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, nil, nil, ErrInvalidCredentials
	}

	if !account.IsActive {
		// A disabled account keeps no live sessions.
		if err := s.sessionService.DestroyAllForAccount(ctx, account.ID); err != nil {
			s.logger.Warn("failed to revoke sessions for disabled account", "account_id", account.ID, "error", err)
		}
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, nil, nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.accountRepo.UpdateLastLogin(ctx, account.ID, now); err != nil {
		return nil, nil, nil, err
	}
	account.LastLoginAt = &now

	token, expiry, err := s.sessionService.Create(ctx, account.ID, account.Email, account.Role, ipAddress, userAgent)
	if err != nil {
		return nil, nil, nil, err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info("login succeeded", "account_id", account.ID)

	return s.accountResponse(account), &SessionResult{Token: token, ExpiresAt: expiry}, nil, nil
}

// Logout destroys the session behind the token. Unknown tokens are
// fine: the caller's goal state is "no session", which already holds.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessionService.Destroy(ctx, token)
}

// GetProfile returns the account behind an authenticated principal
func (s *AuthService) GetProfile(ctx context.Context, accountID int64) (*AccountResponse, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return s.accountResponse(account), nil
}

func (s *AuthService) passwordFieldErrors(password string) []validation.FieldError {
	var out []validation.FieldError
	for _, e := range s.passwordValidator.ValidatePassword(password) {
		out = append(out, validation.FieldError{Field: e.Field, Message: e.Message})
	}
	return out
}

func (s *AuthService) accountResponse(account *repository.Account) *AccountResponse {
	// Encode only fails on negative ids, which autoincrement never
	// produces.
	encoded, _ := s.codec.Encode(account.ID)
	return &AccountResponse{
		ID:        encoded,
		Email:     account.Email,
		Forename:  account.Forename,
		Surname:   account.Surname,
		Role:      string(account.Role),
		CreatedAt: account.CreatedAt,
		LastLogin: account.LastLoginAt,
	}
}

// dummyPasswordHash is a bcrypt hash of a throwaway value, used to
// keep login timing uniform when the email does not exist.
const dummyPasswordHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"
