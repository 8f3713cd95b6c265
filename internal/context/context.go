// Package context provides typed request-context access to the
// authenticated principal. The resolved identity is always threaded
// through context.Context explicitly; handlers never reach into
// ambient session state.
package context

import (
	"context"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// PrincipalKey is the context key for the authenticated principal
	PrincipalKey ContextKey = "principal"
)

// Role is the coarse permission class attached to an account.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleApplicant Role = "applicant"
)

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleApplicant
}

// Principal is the identity a session resolves to.
type Principal struct {
	AccountID int64
	Email     string
	Role      Role
}

// WithPrincipal returns a context carrying the resolved principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// ExtractPrincipal extracts the principal from the request context.
func ExtractPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(Principal)
	return p, ok
}
