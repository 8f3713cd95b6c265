package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Application repository errors
var (
	ErrApplicationNotFound  = errors.New("application not found")
	ErrDuplicateApplication = errors.New("application already exists for this role and email")
)

// ApplicationRepository defines the interface for job application data
// access
type ApplicationRepository interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id int64) (*Application, error)
	List(ctx context.Context, params ListApplicationParams) ([]Application, error)
	HasApplied(ctx context.Context, jobRoleID int64, applicantEmail string) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

type applicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository creates a new ApplicationRepository instance
func NewApplicationRepository(db *sqlx.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

// Create inserts a new application. The unique index on
// (job_role_id, applicant_email) makes duplicate submissions race-safe:
// the pre-check in the service is a courtesy, the constraint is the
// guarantee.
func (r *applicationRepository) Create(ctx context.Context, app *Application) error {
	query := `
		INSERT INTO job_applications (job_role_id, account_id, applicant_name, applicant_email,
		                              cover_letter, cv_file_name, cv_mime_type, cv_size_bytes,
		                              cv_storage_key, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, submitted_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		app.JobRoleID,
		app.AccountID,
		app.ApplicantName,
		strings.ToLower(app.ApplicantEmail),
		app.CoverLetter,
		app.CVFileName,
		app.CVMimeType,
		app.CVSizeBytes,
		app.CVStorageKey,
		app.Status,
	).Scan(&app.ID, &app.SubmittedAt, &app.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, "job_applications.job_role_id") {
			return ErrDuplicateApplication
		}
		return err
	}
	return nil
}

// GetByID retrieves an application by ID
func (r *applicationRepository) GetByID(ctx context.Context, id int64) (*Application, error) {
	query := `
		SELECT id, job_role_id, account_id, applicant_name, applicant_email, cover_letter,
		       cv_file_name, cv_mime_type, cv_size_bytes, cv_storage_key, status,
		       submitted_at, updated_at
		FROM job_applications
		WHERE id = ?
	`

	app := &Application{}
	if err := r.db.GetContext(ctx, app, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return app, nil
}

// List retrieves applications matching the filters, newest first
func (r *applicationRepository) List(ctx context.Context, params ListApplicationParams) ([]Application, error) {
	query := `
		SELECT id, job_role_id, account_id, applicant_name, applicant_email, cover_letter,
		       cv_file_name, cv_mime_type, cv_size_bytes, cv_storage_key, status,
		       submitted_at, updated_at
		FROM job_applications
	`

	var (
		clauses []string
		args    []interface{}
	)
	if params.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, params.Status)
	}
	if params.JobRoleID > 0 {
		clauses = append(clauses, "job_role_id = ?")
		args = append(args, params.JobRoleID)
	}
	if params.ApplicantEmail != "" {
		clauses = append(clauses, "applicant_email = ? COLLATE NOCASE")
		args = append(args, strings.ToLower(params.ApplicantEmail))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY submitted_at DESC, id DESC"

	apps := []Application{}
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, err
	}
	return apps, nil
}

// HasApplied checks whether an application already exists for the role
// and email
func (r *applicationRepository) HasApplied(ctx context.Context, jobRoleID int64, applicantEmail string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM job_applications
			WHERE job_role_id = ? AND applicant_email = ? COLLATE NOCASE
		)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, jobRoleID, strings.ToLower(applicantEmail)); err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateStatus changes an application's status, touching only status
// and updated_at
func (r *applicationRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE job_applications SET status = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrApplicationNotFound
	}
	return nil
}
