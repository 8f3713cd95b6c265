package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	appctx "github.com/ChrisThompsonK/team2-job-app-backend/internal/context"
)

// newTestDB opens a migrated database under a per-test temp directory
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func seedAccount(t *testing.T, repo AccountRepository, email string, role appctx.Role) *Account {
	t.Helper()
	account := &Account{
		Email:        email,
		PasswordHash: "$2a$12$notarealhashnotarealhashnotarealhashnotarealhashnota",
		Forename:     "Test",
		Surname:      "Account",
		Role:         role,
		IsActive:     true,
	}
	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("failed to seed account %s: %v", email, err)
	}
	return account
}

func seedJobRole(t *testing.T, repo JobRoleRepository, name, status string) *JobRole {
	t.Helper()
	role := &JobRole{
		Name:          name,
		Description:   "Build things",
		Location:      "Belfast",
		Capability:    "Engineering",
		Band:          "Consultant",
		ClosingDate:   time.Now().UTC().Add(30 * 24 * time.Hour),
		Status:        status,
		OpenPositions: 2,
	}
	if err := repo.Create(context.Background(), role); err != nil {
		t.Fatalf("failed to seed job role %s: %v", name, err)
	}
	return role
}

func TestAccountCreateAndLookup(t *testing.T) {
	repo := NewAccountRepository(newTestDB(t))
	ctx := context.Background()

	account := seedAccount(t, repo, "user@example.com", appctx.RoleApplicant)
	if account.ID == 0 {
		t.Fatal("create should populate the row id")
	}
	if account.CreatedAt.IsZero() || account.UpdatedAt.IsZero() {
		t.Error("create should populate timestamps")
	}

	byID, err := repo.GetByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID.Email != "user@example.com" {
		t.Errorf("unexpected email %s", byID.Email)
	}

	// Lookup is case-insensitive
	byEmail, err := repo.GetByEmail(ctx, "USER@Example.COM")
	if err != nil {
		t.Fatalf("case-insensitive GetByEmail failed: %v", err)
	}
	if byEmail.ID != account.ID {
		t.Errorf("expected account %d, got %d", account.ID, byEmail.ID)
	}

	if _, err := repo.GetByID(ctx, 9999); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountDuplicateEmail(t *testing.T) {
	repo := NewAccountRepository(newTestDB(t))
	ctx := context.Background()

	seedAccount(t, repo, "dup@example.com", appctx.RoleApplicant)

	dup := &Account{
		Email:        "DUP@example.com",
		PasswordHash: "hash",
		Forename:     "Other",
		Surname:      "Person",
		Role:         appctx.RoleApplicant,
		IsActive:     true,
	}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists for case-variant duplicate, got %v", err)
	}
}

func TestAccountUpdateLastLogin(t *testing.T) {
	repo := NewAccountRepository(newTestDB(t))
	ctx := context.Background()

	account := seedAccount(t, repo, "login@example.com", appctx.RoleApplicant)
	if account.LastLoginAt != nil {
		t.Fatal("fresh account should have no last login")
	}

	at := time.Now().UTC().Truncate(time.Second)
	if err := repo.UpdateLastLogin(ctx, account.ID, at); err != nil {
		t.Fatalf("UpdateLastLogin failed: %v", err)
	}

	updated, err := repo.GetByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.LastLoginAt == nil {
		t.Fatal("last login not persisted")
	}
	if !updated.LastLoginAt.Equal(at) {
		t.Errorf("last login = %v, want %v", updated.LastLoginAt, at)
	}
	// updated_at is reserved for profile mutations
	if !updated.UpdatedAt.Equal(account.UpdatedAt) {
		t.Errorf("updated_at moved on login: %v vs %v", updated.UpdatedAt, account.UpdatedAt)
	}

	if err := repo.UpdateLastLogin(ctx, 9999, at); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound for missing account, got %v", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountRepository(db)
	sessions := NewSessionRepository(db)
	ctx := context.Background()

	account := seedAccount(t, accounts, "sess@example.com", appctx.RoleAdmin)

	ip := "203.0.113.7"
	session := &Session{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
		TokenHash: "deadbeef",
		ExpiresAt: time.Now().UTC().Add(time.Hour).Truncate(time.Second),
		IPAddress: &ip,
	}
	if err := sessions.Create(ctx, session); err != nil {
		t.Fatalf("session create failed: %v", err)
	}
	if session.ID == "" {
		t.Error("create should assign a session id")
	}

	got, err := sessions.GetByTokenHash(ctx, "deadbeef")
	if err != nil {
		t.Fatalf("GetByTokenHash failed: %v", err)
	}
	if got.AccountID != account.ID || got.Email != "sess@example.com" || got.Role != appctx.RoleAdmin {
		t.Errorf("unexpected session %+v", got)
	}
	if got.IPAddress == nil || *got.IPAddress != ip {
		t.Errorf("ip address not persisted: %v", got.IPAddress)
	}
	if got.UserAgent != nil {
		t.Errorf("absent user agent should round-trip as nil, got %v", got.UserAgent)
	}
	if !got.ExpiresAt.Equal(session.ExpiresAt) {
		t.Errorf("expiry = %v, want %v", got.ExpiresAt, session.ExpiresAt)
	}

	if err := sessions.DeleteByTokenHash(ctx, "deadbeef"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := sessions.GetByTokenHash(ctx, "deadbeef"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := sessions.DeleteByTokenHash(ctx, "deadbeef"); err != nil {
		t.Errorf("deleting an absent session should not error: %v", err)
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountRepository(db)
	sessions := NewSessionRepository(db)
	ctx := context.Background()

	account := seedAccount(t, accounts, "sweep@example.com", appctx.RoleApplicant)
	now := time.Now().UTC()

	for i, expiry := range []time.Time{
		now.Add(-2 * time.Hour),
		now.Add(-time.Minute),
		now.Add(time.Hour),
	} {
		session := &Session{
			AccountID: account.ID,
			Email:     account.Email,
			Role:      account.Role,
			TokenHash: string(rune('a' + i)),
			ExpiresAt: expiry,
		}
		if err := sessions.Create(ctx, session); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	deleted, err := sessions.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted %d sessions, want 2", deleted)
	}

	if _, err := sessions.GetByTokenHash(ctx, "c"); err != nil {
		t.Errorf("live session should survive the sweep: %v", err)
	}
}

func TestSessionCascadeOnAccountDelete(t *testing.T) {
	db := newTestDB(t)
	accounts := NewAccountRepository(db)
	sessions := NewSessionRepository(db)
	ctx := context.Background()

	account := seedAccount(t, accounts, "cascade@example.com", appctx.RoleApplicant)
	session := &Session{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
		TokenHash: "cascade-hash",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	if err := sessions.Create(ctx, session); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, account.ID); err != nil {
		t.Fatalf("account delete failed: %v", err)
	}

	if _, err := sessions.GetByTokenHash(ctx, "cascade-hash"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("session should cascade with its account, got %v", err)
	}
}

func TestJobRoleCRUD(t *testing.T) {
	repo := NewJobRoleRepository(newTestDB(t))
	ctx := context.Background()

	role := seedJobRole(t, repo, "Software Engineer", JobRoleStatusActive)
	if role.ID == 0 {
		t.Fatal("create should populate the row id")
	}

	got, err := repo.GetByID(ctx, role.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Software Engineer" || got.OpenPositions != 2 {
		t.Errorf("unexpected role %+v", got)
	}

	got.Name = "Senior Software Engineer"
	got.Status = JobRoleStatusClosed
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	updated, _ := repo.GetByID(ctx, role.ID)
	if updated.Name != "Senior Software Engineer" || updated.Status != JobRoleStatusClosed {
		t.Errorf("update not persisted: %+v", updated)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Error("updated_at should move forward on update")
	}

	if err := repo.Delete(ctx, role.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, role.ID); !errors.Is(err, ErrJobRoleNotFound) {
		t.Errorf("expected ErrJobRoleNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, role.ID); !errors.Is(err, ErrJobRoleNotFound) {
		t.Errorf("deleting a missing role should report not found, got %v", err)
	}
	if err := repo.Update(ctx, got); !errors.Is(err, ErrJobRoleNotFound) {
		t.Errorf("updating a missing role should report not found, got %v", err)
	}
}

func TestJobRoleListFiltersAndCount(t *testing.T) {
	repo := NewJobRoleRepository(newTestDB(t))
	ctx := context.Background()

	seedJobRole(t, repo, "Engineer Belfast", JobRoleStatusActive)
	seedJobRole(t, repo, "Engineer Derry", JobRoleStatusActive)
	draft := seedJobRole(t, repo, "Unpublished", JobRoleStatusDraft)
	draft.Location = "Derry"
	if err := repo.Update(ctx, draft); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	all, err := repo.List(ctx, ListJobRoleParams{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 roles, got %d", len(all))
	}

	active, err := repo.List(ctx, ListJobRoleParams{Status: JobRoleStatusActive})
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("expected 2 active roles, got %d", len(active))
	}

	count, err := repo.Count(ctx, ListJobRoleParams{Status: JobRoleStatusActive})
	if err != nil || count != 2 {
		t.Errorf("Count = %d, %v, want 2", count, err)
	}

	derry, err := repo.List(ctx, ListJobRoleParams{Location: "Derry"})
	if err != nil {
		t.Fatalf("location filter failed: %v", err)
	}
	if len(derry) != 1 || derry[0].Name != "Unpublished" {
		t.Errorf("unexpected location filter result: %+v", derry)
	}

	// Pagination window
	window, err := repo.List(ctx, ListJobRoleParams{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("paged list failed: %v", err)
	}
	if len(window) != 2 {
		t.Errorf("expected 2 roles in the window, got %d", len(window))
	}
	rest, err := repo.List(ctx, ListJobRoleParams{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("paged list failed: %v", err)
	}
	if len(rest) != 1 {
		t.Errorf("expected 1 role past the window, got %d", len(rest))
	}
}

func TestApplicationCreateAndDuplicate(t *testing.T) {
	db := newTestDB(t)
	roles := NewJobRoleRepository(db)
	apps := NewApplicationRepository(db)
	ctx := context.Background()

	role := seedJobRole(t, roles, "Engineer", JobRoleStatusActive)

	app := &Application{
		JobRoleID:      role.ID,
		ApplicantName:  "Ada Lovelace",
		ApplicantEmail: "Ada@Example.com",
		Status:         ApplicationStatusPending,
	}
	if err := apps.Create(ctx, app); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if app.ID == 0 || app.SubmittedAt.IsZero() {
		t.Error("create should populate id and submitted_at")
	}

	got, err := apps.GetByID(ctx, app.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ApplicantEmail != "ada@example.com" {
		t.Errorf("email should be stored lowercased, got %s", got.ApplicantEmail)
	}
	if got.AccountID != nil || got.CVStorageKey != nil {
		t.Errorf("optional fields should round-trip as nil: %+v", got)
	}

	// Same role, case-variant email: the unique index catches it.
	dup := &Application{
		JobRoleID:      role.ID,
		ApplicantName:  "Ada Again",
		ApplicantEmail: "ADA@example.com",
		Status:         ApplicationStatusPending,
	}
	if err := apps.Create(ctx, dup); !errors.Is(err, ErrDuplicateApplication) {
		t.Fatalf("expected ErrDuplicateApplication, got %v", err)
	}

	// A different role is a fresh application.
	other := seedJobRole(t, roles, "Analyst", JobRoleStatusActive)
	fresh := &Application{
		JobRoleID:      other.ID,
		ApplicantName:  "Ada Lovelace",
		ApplicantEmail: "ada@example.com",
		Status:         ApplicationStatusPending,
	}
	if err := apps.Create(ctx, fresh); err != nil {
		t.Errorf("application to a second role should succeed: %v", err)
	}
}

func TestApplicationHasApplied(t *testing.T) {
	db := newTestDB(t)
	roles := NewJobRoleRepository(db)
	apps := NewApplicationRepository(db)
	ctx := context.Background()

	role := seedJobRole(t, roles, "Engineer", JobRoleStatusActive)
	app := &Application{
		JobRoleID:      role.ID,
		ApplicantName:  "Ada",
		ApplicantEmail: "ada@example.com",
		Status:         ApplicationStatusPending,
	}
	if err := apps.Create(ctx, app); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	applied, err := apps.HasApplied(ctx, role.ID, "ADA@Example.COM")
	if err != nil || !applied {
		t.Errorf("HasApplied = %v, %v, want true", applied, err)
	}
	applied, err = apps.HasApplied(ctx, role.ID, "someone-else@example.com")
	if err != nil || applied {
		t.Errorf("HasApplied = %v, %v, want false", applied, err)
	}
}

func TestApplicationUpdateStatus(t *testing.T) {
	db := newTestDB(t)
	roles := NewJobRoleRepository(db)
	apps := NewApplicationRepository(db)
	ctx := context.Background()

	role := seedJobRole(t, roles, "Engineer", JobRoleStatusActive)
	app := &Application{
		JobRoleID:      role.ID,
		ApplicantName:  "Ada",
		ApplicantEmail: "ada@example.com",
		CoverLetter:    ptr("I would like the job"),
		Status:         ApplicationStatusPending,
	}
	if err := apps.Create(ctx, app); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := apps.UpdateStatus(ctx, app.ID, ApplicationStatusWithdrawn); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	got, _ := apps.GetByID(ctx, app.ID)
	if got.Status != ApplicationStatusWithdrawn {
		t.Errorf("status = %s, want withdrawn", got.Status)
	}
	// Only status and updated_at move
	if got.CoverLetter == nil || *got.CoverLetter != "I would like the job" {
		t.Errorf("cover letter mutated: %v", got.CoverLetter)
	}
	if !got.SubmittedAt.Equal(app.SubmittedAt) {
		t.Errorf("submitted_at mutated: %v vs %v", got.SubmittedAt, app.SubmittedAt)
	}

	if err := apps.UpdateStatus(ctx, 9999, ApplicationStatusRejected); !errors.Is(err, ErrApplicationNotFound) {
		t.Errorf("expected ErrApplicationNotFound, got %v", err)
	}
}

func TestApplicationListFilters(t *testing.T) {
	db := newTestDB(t)
	roles := NewJobRoleRepository(db)
	apps := NewApplicationRepository(db)
	ctx := context.Background()

	engineering := seedJobRole(t, roles, "Engineer", JobRoleStatusActive)
	analysis := seedJobRole(t, roles, "Analyst", JobRoleStatusActive)

	for _, seed := range []struct {
		roleID int64
		email  string
		status string
	}{
		{engineering.ID, "ada@example.com", ApplicationStatusPending},
		{engineering.ID, "grace@example.com", ApplicationStatusShortlisted},
		{analysis.ID, "ada@example.com", ApplicationStatusPending},
	} {
		app := &Application{
			JobRoleID:      seed.roleID,
			ApplicantName:  "Applicant",
			ApplicantEmail: seed.email,
			Status:         seed.status,
		}
		if err := apps.Create(ctx, app); err != nil {
			t.Fatalf("seed create failed: %v", err)
		}
	}

	all, err := apps.List(ctx, ListApplicationParams{})
	if err != nil || len(all) != 3 {
		t.Fatalf("List all = %d, %v, want 3", len(all), err)
	}

	byRole, err := apps.List(ctx, ListApplicationParams{JobRoleID: engineering.ID})
	if err != nil || len(byRole) != 2 {
		t.Errorf("List by role = %d, %v, want 2", len(byRole), err)
	}

	byEmail, err := apps.List(ctx, ListApplicationParams{ApplicantEmail: "ADA@example.com"})
	if err != nil || len(byEmail) != 2 {
		t.Errorf("List by email = %d, %v, want 2", len(byEmail), err)
	}

	byStatus, err := apps.List(ctx, ListApplicationParams{Status: ApplicationStatusShortlisted})
	if err != nil || len(byStatus) != 1 {
		t.Errorf("List by status = %d, %v, want 1", len(byStatus), err)
	}

	combined, err := apps.List(ctx, ListApplicationParams{JobRoleID: analysis.ID, ApplicantEmail: "ada@example.com"})
	if err != nil || len(combined) != 1 {
		t.Errorf("combined filters = %d, %v, want 1", len(combined), err)
	}
}

func ptr(s string) *string { return &s }
