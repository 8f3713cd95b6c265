package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"log/slog"
	"time"

	appctx "github.com/ChrisThompsonK/team2-job-app-backend/internal/context"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/metrics"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/repository"
)

const sessionTokenBytes = 32

// SessionService manages server-side sessions bound to opaque
// client-held tokens. Only the SHA-256 hash of a token is ever stored,
// so a leaked database never yields usable cookies.
type SessionService struct {
	sessionRepo repository.SessionRepository
	ttl         time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewSessionService creates a new SessionService instance
func NewSessionService(sessionRepo repository.SessionRepository, ttl time.Duration, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		sessionRepo: sessionRepo,
		ttl:         ttl,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create issues a fresh unguessable token for the account and persists
// the session. The role is denormalized into the session so resolving
// a request needs a single lookup.
func (s *SessionService) Create(ctx context.Context, accountID int64, email string, role appctx.Role, ipAddress, userAgent string) (token string, expiry time.Time, err error) {
	raw := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", time.Time{}, err
	}
	token = base64.RawURLEncoding.EncodeToString(raw)
	expiry = s.now().Add(s.ttl)

	session := &repository.Session{
		AccountID: accountID,
		Email:     email,
		Role:      role,
		TokenHash: HashSessionToken(token),
		ExpiresAt: expiry,
	}
	if ipAddress != "" {
		session.IPAddress = &ipAddress
	}
	if userAgent != "" {
		session.UserAgent = &userAgent
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return "", time.Time{}, err
	}
	return token, expiry, nil
}

// Resolve maps a client-held token to the principal it authenticates
// as. Expiry is checked here, at read time: an expired session behaves
// identically to one that never existed, and the background sweep is
// never needed for correctness.
func (s *SessionService) Resolve(ctx context.Context, token string) (appctx.Principal, bool, error) {
	if token == "" {
		return appctx.Principal{}, false, nil
	}

	session, err := s.sessionRepo.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if err == repository.ErrSessionNotFound {
			return appctx.Principal{}, false, nil
		}
		return appctx.Principal{}, false, err
	}

	if !s.now().Before(session.ExpiresAt) {
		return appctx.Principal{}, false, nil
	}

	return appctx.Principal{
		AccountID: session.AccountID,
		Email:     session.Email,
		Role:      session.Role,
	}, true, nil
}

// Destroy removes the session for the token. Destroying an absent or
// already-destroyed session is not an error.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessionRepo.DeleteByTokenHash(ctx, HashSessionToken(token))
}

// DestroyAllForAccount removes every session the account holds
func (s *SessionService) DestroyAllForAccount(ctx context.Context, accountID int64) error {
	return s.sessionRepo.DeleteByAccountID(ctx, accountID)
}

// StartSweeper runs a periodic purge of expired session rows until the
// context is cancelled. This is housekeeping only; Resolve re-checks
// expiry on every read.
func (s *SessionService) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.sessionRepo.DeleteExpired(ctx, s.now())
				if err != nil {
					s.logger.Warn("session sweep failed", "error", err)
					continue
				}
				if deleted > 0 {
					metrics.SessionsSweptTotal.Add(float64(deleted))
					s.logger.Info("purged expired sessions", "count", deleted)
				}
			}
		}
	}()
}

// HashSessionToken returns the hex SHA-256 digest stored in place of
// the raw token.
func HashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
