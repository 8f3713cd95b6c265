package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Session repository errors
var (
	ErrSessionNotFound = errors.New("session not found")
)

// SessionRepository defines the interface for session data access.
// Expiry is always re-checked by the session manager at read time; the
// store never has to guarantee timely cleanup for correctness.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteByAccountID(ctx context.Context, accountID int64) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type sessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new SessionRepository instance
func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create inserts a new session row
func (r *sessionRepository) Create(ctx context.Context, session *Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO sessions (id, account_id, email, role, token_hash, expires_at, created_at, ip_address, user_agent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.AccountID,
		session.Email,
		session.Role,
		session.TokenHash,
		session.ExpiresAt.UTC(),
		session.CreatedAt,
		session.IPAddress,
		session.UserAgent,
	)
	return err
}

// GetByTokenHash retrieves a session by its token hash. Callers decide
// what an expired row means; this is a plain lookup.
func (r *sessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	query := `
		SELECT id, account_id, email, role, token_hash, expires_at, created_at, ip_address, user_agent
		FROM sessions
		WHERE token_hash = ?
	`

	session := &Session{}
	if err := r.db.GetContext(ctx, session, query, tokenHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// DeleteByTokenHash removes a session. Deleting an absent session is
// not an error; logout is idempotent.
func (r *sessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, tokenHash)
	return err
}

// DeleteByAccountID removes every session for an account
func (r *sessionRepository) DeleteByAccountID(ctx context.Context, accountID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE account_id = ?`, accountID)
	return err
}

// DeleteExpired purges sessions whose expiry has passed and returns the
// number of rows removed
func (r *sessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, before.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
