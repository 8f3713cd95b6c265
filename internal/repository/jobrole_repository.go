package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Job role repository errors
var (
	ErrJobRoleNotFound = errors.New("job role not found")
)

// JobRoleRepository defines the interface for job role data access
type JobRoleRepository interface {
	Create(ctx context.Context, role *JobRole) error
	GetByID(ctx context.Context, id int64) (*JobRole, error)
	List(ctx context.Context, params ListJobRoleParams) ([]JobRole, error)
	Count(ctx context.Context, params ListJobRoleParams) (int, error)
	Update(ctx context.Context, role *JobRole) error
	Delete(ctx context.Context, id int64) error
}

type jobRoleRepository struct {
	db *sqlx.DB
}

// NewJobRoleRepository creates a new JobRoleRepository instance
func NewJobRoleRepository(db *sqlx.DB) JobRoleRepository {
	return &jobRoleRepository{db: db}
}

// Create inserts a new job role
func (r *jobRoleRepository) Create(ctx context.Context, role *JobRole) error {
	query := `
		INSERT INTO job_roles (name, description, responsibilities, job_spec_link,
		                       location, capability, band, closing_date, status, open_positions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRowxContext(ctx, query,
		role.Name,
		role.Description,
		role.Responsibilities,
		role.JobSpecLink,
		role.Location,
		role.Capability,
		role.Band,
		role.ClosingDate.UTC(),
		role.Status,
		role.OpenPositions,
	).Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)
}

// GetByID retrieves a job role by ID
func (r *jobRoleRepository) GetByID(ctx context.Context, id int64) (*JobRole, error) {
	query := `
		SELECT id, name, description, responsibilities, job_spec_link, location,
		       capability, band, closing_date, status, open_positions, created_at, updated_at
		FROM job_roles
		WHERE id = ?
	`

	role := &JobRole{}
	if err := r.db.GetContext(ctx, role, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobRoleNotFound
		}
		return nil, err
	}
	return role, nil
}

// List retrieves job roles matching the filters, newest first
func (r *jobRoleRepository) List(ctx context.Context, params ListJobRoleParams) ([]JobRole, error) {
	query := `
		SELECT id, name, description, responsibilities, job_spec_link, location,
		       capability, band, closing_date, status, open_positions, created_at, updated_at
		FROM job_roles
	`
	where, args := jobRoleFilters(params)
	query += where + ` ORDER BY created_at DESC, id DESC`

	if params.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, params.Limit, params.Offset)
	}

	roles := []JobRole{}
	if err := r.db.SelectContext(ctx, &roles, query, args...); err != nil {
		return nil, err
	}
	return roles, nil
}

// Count returns the number of job roles matching the filters
func (r *jobRoleRepository) Count(ctx context.Context, params ListJobRoleParams) (int, error) {
	query := `SELECT COUNT(*) FROM job_roles`
	where, args := jobRoleFilters(params)
	query += where

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, err
	}
	return count, nil
}

// Update rewrites a job role's mutable fields and bumps updated_at
func (r *jobRoleRepository) Update(ctx context.Context, role *JobRole) error {
	query := `
		UPDATE job_roles
		SET name = ?, description = ?, responsibilities = ?, job_spec_link = ?,
		    location = ?, capability = ?, band = ?, closing_date = ?, status = ?,
		    open_positions = ?, updated_at = ?
		WHERE id = ?
	`

	role.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query,
		role.Name,
		role.Description,
		role.Responsibilities,
		role.JobSpecLink,
		role.Location,
		role.Capability,
		role.Band,
		role.ClosingDate.UTC(),
		role.Status,
		role.OpenPositions,
		role.UpdatedAt,
		role.ID,
	)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrJobRoleNotFound
	}
	return nil
}

// Delete removes a job role
func (r *jobRoleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM job_roles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrJobRoleNotFound
	}
	return nil
}

// jobRoleFilters builds the WHERE clause shared by List and Count
func jobRoleFilters(params ListJobRoleParams) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if params.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, params.Status)
	}
	if params.Capability != "" {
		clauses = append(clauses, "capability = ?")
		args = append(args, params.Capability)
	}
	if params.Band != "" {
		clauses = append(clauses, "band = ?")
		args = append(args, params.Band)
	}
	if params.Location != "" {
		clauses = append(clauses, "location = ?")
		args = append(args, params.Location)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}
