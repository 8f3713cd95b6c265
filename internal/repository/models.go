package repository

import (
	"time"

	appctx "github.com/ChrisThompsonK/team2-job-app-backend/internal/context"
)

// Account represents a registered principal in the database
type Account struct {
	ID           int64       `db:"id"`
	Email        string      `db:"email"`
	PasswordHash string      `db:"password_hash"`
	Forename     string      `db:"forename"`
	Surname      string      `db:"surname"`
	Role         appctx.Role `db:"role"`
	IsActive     bool        `db:"is_active"`
	LastLoginAt  *time.Time  `db:"last_login_at"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

// Session represents a server-side authentication session. The role is
// denormalized from the account so resolving a session needs no second
// lookup.
type Session struct {
	ID        string      `db:"id"`
	AccountID int64       `db:"account_id"`
	Email     string      `db:"email"`
	Role      appctx.Role `db:"role"`
	TokenHash string      `db:"token_hash"`
	ExpiresAt time.Time   `db:"expires_at"`
	CreatedAt time.Time   `db:"created_at"`
	IPAddress *string     `db:"ip_address"`
	UserAgent *string     `db:"user_agent"`
}

// Job role statuses
const (
	JobRoleStatusActive = "active"
	JobRoleStatusClosed = "closed"
	JobRoleStatusDraft  = "draft"
)

// JobRole represents an open position in the database
type JobRole struct {
	ID               int64     `db:"id"`
	Name             string    `db:"name"`
	Description      string    `db:"description"`
	Responsibilities string    `db:"responsibilities"`
	JobSpecLink      string    `db:"job_spec_link"`
	Location         string    `db:"location"`
	Capability       string    `db:"capability"`
	Band             string    `db:"band"`
	ClosingDate      time.Time `db:"closing_date"`
	Status           string    `db:"status"`
	OpenPositions    int       `db:"open_positions"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Application statuses. Hired, rejected, and withdrawn are terminal for
// owner-initiated mutation.
const (
	ApplicationStatusPending     = "pending"
	ApplicationStatusUnderReview = "under_review"
	ApplicationStatusShortlisted = "shortlisted"
	ApplicationStatusRejected    = "rejected"
	ApplicationStatusHired       = "hired"
	ApplicationStatusWithdrawn   = "withdrawn"
)

// Application represents a submitted job application. AccountID is set
// when the applicant was authenticated at submission time; the claimed
// applicant email is recorded either way and is the ownership anchor
// for unauthenticated flows.
type Application struct {
	ID             int64     `db:"id"`
	JobRoleID      int64     `db:"job_role_id"`
	AccountID      *int64    `db:"account_id"`
	ApplicantName  string    `db:"applicant_name"`
	ApplicantEmail string    `db:"applicant_email"`
	CoverLetter    *string   `db:"cover_letter"`
	CVFileName     *string   `db:"cv_file_name"`
	CVMimeType     *string   `db:"cv_mime_type"`
	CVSizeBytes    *int64    `db:"cv_size_bytes"`
	CVStorageKey   *string   `db:"cv_storage_key"`
	Status         string    `db:"status"`
	SubmittedAt    time.Time `db:"submitted_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// ListJobRoleParams holds filters and pagination for listing job roles
type ListJobRoleParams struct {
	Status     string
	Capability string
	Band       string
	Location   string
	Limit      int
	Offset     int
}

// ListApplicationParams holds filters for listing applications
type ListApplicationParams struct {
	Status         string
	JobRoleID      int64
	ApplicantEmail string
}
