package auth

import (
	"context"
	"testing"
	"time"

	"pgregory.net/rapid"

	appctx "github.com/ChrisThompsonK/team2-job-app-backend/internal/context"
)

func newTestSessionService(repo *mockSessionRepository, ttl time.Duration) *SessionService {
	return NewSessionService(repo, ttl, nil)
}

func TestSessionCreateAndResolve(t *testing.T) {
	repo := newMockSessionRepository()
	service := newTestSessionService(repo, time.Hour)
	ctx := context.Background()

	token, expiry, err := service.Create(ctx, 42, "worker@example.com", appctx.RoleApplicant, "203.0.113.7", "go-test")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}
	if !expiry.After(time.Now()) {
		t.Error("expiry should be in the future")
	}

	principal, ok, err := service.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !ok {
		t.Fatal("expected the session to resolve")
	}
	if principal.AccountID != 42 {
		t.Errorf("expected account 42, got %d", principal.AccountID)
	}
	if principal.Email != "worker@example.com" {
		t.Errorf("unexpected email %s", principal.Email)
	}
	if principal.Role != appctx.RoleApplicant {
		t.Errorf("unexpected role %s", principal.Role)
	}
}

func TestSessionTokenNeverStoredRaw(t *testing.T) {
	repo := newMockSessionRepository()
	service := newTestSessionService(repo, time.Hour)

	token, _, err := service.Create(context.Background(), 1, "a@example.com", appctx.RoleApplicant, "", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for hash, session := range repo.sessions {
		if hash == token || session.TokenHash == token {
			t.Fatal("raw token found in the store")
		}
		if session.TokenHash != HashSessionToken(token) {
			t.Error("stored hash does not match the token digest")
		}
		if session.IPAddress != nil || session.UserAgent != nil {
			t.Error("empty client metadata should be stored as NULL")
		}
	}
}

func TestSessionTokensAreUnique(t *testing.T) {
	repo := newMockSessionRepository()
	service := newTestSessionService(repo, time.Hour)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, _, err := service.Create(ctx, 1, "a@example.com", appctx.RoleApplicant, "", "")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if seen[token] {
			t.Fatal("token issued twice")
		}
		seen[token] = true
	}
}

func TestExpiredSessionResolvesLikeAbsent(t *testing.T) {
	repo := newMockSessionRepository()
	service := newTestSessionService(repo, time.Hour)
	ctx := context.Background()

	token, expiry, err := service.Create(ctx, 7, "late@example.com", appctx.RoleAdmin, "", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Advance the clock past expiry; the row is still in the store.
	service.now = func() time.Time { return expiry.Add(time.Second) }

	principal, ok, err := service.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if ok {
		t.Fatal("expired session must not resolve")
	}
	if principal != (appctx.Principal{}) {
		t.Errorf("expected zero principal, got %+v", principal)
	}

	// An expiry boundary hit exactly is also expired.
	service.now = func() time.Time { return expiry }
	if _, ok, _ := service.Resolve(ctx, token); ok {
		t.Error("session at exact expiry instant must not resolve")
	}
}

func TestResolveUnknownAndEmptyTokens(t *testing.T) {
	service := newTestSessionService(newMockSessionRepository(), time.Hour)
	ctx := context.Background()

	if _, ok, err := service.Resolve(ctx, "no-such-token"); ok || err != nil {
		t.Errorf("unknown token: ok=%v err=%v", ok, err)
	}
	if _, ok, err := service.Resolve(ctx, ""); ok || err != nil {
		t.Errorf("empty token: ok=%v err=%v", ok, err)
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	repo := newMockSessionRepository()
	service := newTestSessionService(repo, time.Hour)
	ctx := context.Background()

	token, _, err := service.Create(ctx, 3, "gone@example.com", appctx.RoleApplicant, "", "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := service.Destroy(ctx, token); err != nil {
		t.Fatalf("destroy failed: %v", err)
	}
	if _, ok, _ := service.Resolve(ctx, token); ok {
		t.Fatal("destroyed session must not resolve")
	}
	if err := service.Destroy(ctx, token); err != nil {
		t.Fatalf("second destroy should succeed: %v", err)
	}
	if err := service.Destroy(ctx, ""); err != nil {
		t.Fatalf("destroying the empty token should be a no-op: %v", err)
	}
}

func TestDestroyAllForAccount(t *testing.T) {
	repo := newMockSessionRepository()
	service := newTestSessionService(repo, time.Hour)
	ctx := context.Background()

	var mine []string
	for i := 0; i < 3; i++ {
		token, _, _ := service.Create(ctx, 10, "multi@example.com", appctx.RoleApplicant, "", "")
		mine = append(mine, token)
	}
	other, _, _ := service.Create(ctx, 11, "other@example.com", appctx.RoleApplicant, "", "")

	if err := service.DestroyAllForAccount(ctx, 10); err != nil {
		t.Fatalf("destroy all failed: %v", err)
	}

	for _, token := range mine {
		if _, ok, _ := service.Resolve(ctx, token); ok {
			t.Error("account 10 session survived DestroyAllForAccount")
		}
	}
	if _, ok, _ := service.Resolve(ctx, other); !ok {
		t.Error("unrelated account's session was destroyed")
	}
}

func TestSessionTTLProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ttlMinutes := rapid.Int64Range(1, 7*24*60).Draw(t, "ttlMinutes")
		ttl := time.Duration(ttlMinutes) * time.Minute

		repo := newMockSessionRepository()
		service := newTestSessionService(repo, ttl)

		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		service.now = func() time.Time { return base }

		token, expiry, err := service.Create(context.Background(), 1, "p@example.com", appctx.RoleApplicant, "", "")
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if !expiry.Equal(base.Add(ttl)) {
			t.Fatalf("expiry should be creation time plus ttl, got %v", expiry)
		}

		// One tick before expiry the session resolves; at expiry it does not.
		service.now = func() time.Time { return expiry.Add(-time.Nanosecond) }
		if _, ok, _ := service.Resolve(context.Background(), token); !ok {
			t.Error("session should resolve just before expiry")
		}
		service.now = func() time.Time { return expiry }
		if _, ok, _ := service.Resolve(context.Background(), token); ok {
			t.Error("session should not resolve at expiry")
		}
	})
}
