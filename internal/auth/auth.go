// Package auth is the boundary to the external identity system. The core
// consumes the Authorizer interface; the bundled implementation resolves
// roles from JWT claims the HTTP middleware placed in the context.
package auth

import (
	"context"

	"restaurant-pos/internal/domain"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCashier = "cashier"
	RoleWaiter  = "waiter"
	RoleKitchen = "kitchen"
)

// Elevated is the role set allowed to close shifts and approve variances.
var Elevated = []string{RoleAdmin, RoleManager}

// Claims is the identity attached to a request: who acts, and as what.
type Claims struct {
	StaffID int64
	Role    string
}

type Authorizer interface {
	// AssertRole fails with CodePermissionDenied unless actorID is a known
	// identity on this request holding one of the allowed roles.
	AssertRole(ctx context.Context, actorID int64, allowed ...string) error
}

type actorKey struct{}
type approverKey struct{}

func WithActor(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, actorKey{}, c)
}

func ActorFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(actorKey{}).(Claims)
	return c, ok
}

// WithApprover attaches a second identity (the manager approving a variance).
func WithApprover(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, approverKey{}, c)
}

func ApproverFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(approverKey{}).(Claims)
	return c, ok
}

// ClaimsAuthorizer validates actors against the identities carried by the
// request context.
type ClaimsAuthorizer struct{}

func (ClaimsAuthorizer) AssertRole(ctx context.Context, actorID int64, allowed ...string) error {
	for _, c := range requestClaims(ctx) {
		if c.StaffID != actorID {
			continue
		}
		for _, role := range allowed {
			if c.Role == role {
				return nil
			}
		}
	}
	return domain.E(domain.CodePermissionDenied, "insufficient role").With("actor_id", actorID)
}

func requestClaims(ctx context.Context) []Claims {
	var out []Claims
	if c, ok := ActorFrom(ctx); ok {
		out = append(out, c)
	}
	if c, ok := ApproverFrom(ctx); ok {
		out = append(out, c)
	}
	return out
}

// StaticAuthorizer maps staff ids to roles directly; used in tests and dev
// mode where no token infrastructure exists.
type StaticAuthorizer struct {
	Roles map[int64]string
}

func (a StaticAuthorizer) AssertRole(_ context.Context, actorID int64, allowed ...string) error {
	role, ok := a.Roles[actorID]
	if ok {
		for _, r := range allowed {
			if role == r {
				return nil
			}
		}
	}
	return domain.E(domain.CodePermissionDenied, "insufficient role").With("actor_id", actorID)
}
