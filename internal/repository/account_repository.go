package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Account repository errors
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// AccountRepository defines the interface the auth core uses to look
// up, create, and update account records.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

type accountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new AccountRepository instance
func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create inserts a new account. Email uniqueness is enforced by the
// store's unique index, not a pre-check, so two concurrent
// registrations with the same email resolve to one success and one
// ErrEmailAlreadyExists.
func (r *accountRepository) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (email, password_hash, forename, surname, role, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		strings.ToLower(account.Email),
		account.PasswordHash,
		account.Forename,
		account.Surname,
		account.Role,
		account.IsActive,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, "accounts.email") {
			return ErrEmailAlreadyExists
		}
		return err
	}

	return nil
}

// GetByID retrieves an account by its internal ID
func (r *accountRepository) GetByID(ctx context.Context, id int64) (*Account, error) {
	query := `
		SELECT id, email, password_hash, forename, surname, role, is_active,
		       last_login_at, created_at, updated_at
		FROM accounts
		WHERE id = ?
	`

	account := &Account{}
	if err := r.db.GetContext(ctx, account, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// GetByEmail retrieves an account by email, case-insensitively
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	query := `
		SELECT id, email, password_hash, forename, surname, role, is_active,
		       last_login_at, created_at, updated_at
		FROM accounts
		WHERE email = ? COLLATE NOCASE
	`

	account := &Account{}
	if err := r.db.GetContext(ctx, account, query, strings.ToLower(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// UpdateLastLogin sets last_login_at for an account. Only the login
// timestamp moves; updated_at is untouched so profile-mutation auditing
// stays meaningful.
func (r *accountRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE accounts SET last_login_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure on the named column.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}
