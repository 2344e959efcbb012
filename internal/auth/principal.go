package auth

import (
	"errors"

	"github.com/suteetoe/perftrack/pkg/jwtutil"
)

// ErrNoPermissions indicates a token whose permission payload is missing or
// empty. Such tokens are rejected outright rather than treated as allowing
// nothing and passing through.
var ErrNoPermissions = errors.New("token carries no permission set")

// Principal is the request-scoped identity: the authenticated user with its
// permission set resolved once from the role, plus the flags the ownership
// axis needs. Handlers read it from the Echo context instead of re-querying
// the role per check.
type Principal struct {
	UserID   uint
	Email    string
	Role     string
	Elevated bool
	TenantID *uint

	perms map[string]struct{}
}

// NewPrincipal builds a principal from validated JWT claims. A missing or
// empty permission list is an error, never an empty-allow.
func NewPrincipal(claims *jwtutil.UserClaims) (*Principal, error) {
	if len(claims.Permissions) == 0 {
		return nil, ErrNoPermissions
	}

	perms := make(map[string]struct{}, len(claims.Permissions))
	for _, key := range claims.Permissions {
		perms[key] = struct{}{}
	}

	return &Principal{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Role:     claims.Role,
		Elevated: claims.Elevated,
		TenantID: claims.TenantID,
		perms:    perms,
	}, nil
}

// Can reports whether the principal holds the given permission
func (p *Principal) Can(permission string) bool {
	_, ok := p.perms[permission]
	return ok
}

// CanAccessRecord applies the ownership axis on top of the permission check:
// elevated principals may touch anything, everyone else only records they own
// or records scoped to a tenant they belong to. leaderID is the record
// tenant's leader, or nil when the record has no tenant.
func (p *Principal) CanAccessRecord(ownerID uint, recordTenantID *uint, leaderID *uint) bool {
	if p.Elevated {
		return true
	}
	if p.UserID == ownerID {
		return true
	}
	if recordTenantID == nil {
		return false
	}
	if leaderID != nil && *leaderID == p.UserID {
		return true
	}
	return p.TenantID != nil && *p.TenantID == *recordTenantID
}

// CanAssignRole enforces the escalation guard: an actor may only hand out
// roles ranked strictly below its own.
func CanAssignRole(actorRank, targetRank int) bool {
	return targetRank < actorRank
}
