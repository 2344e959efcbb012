package auth

import (
	"testing"

	"github.com/suteetoe/perftrack/pkg/jwtutil"
)

func TestPrincipalPermissions(t *testing.T) {
	claims := &jwtutil.UserClaims{
		UserID:      1,
		Email:       "user@example.com",
		Role:        "user",
		Permissions: []string{"project:read", "project:update"},
	}

	principal, err := NewPrincipal(claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !principal.Can("project:read") {
		t.Fatalf("expected permission")
	}
	if principal.Can("project:delete") {
		t.Fatalf("unexpected permission")
	}
}

func TestPrincipalRejectsEmptyPermissionSet(t *testing.T) {
	claims := &jwtutil.UserClaims{UserID: 1, Email: "user@example.com", Role: "user"}

	if _, err := NewPrincipal(claims); err != ErrNoPermissions {
		t.Fatalf("expected ErrNoPermissions, got %v", err)
	}

	claims.Permissions = []string{}
	if _, err := NewPrincipal(claims); err != ErrNoPermissions {
		t.Fatalf("expected ErrNoPermissions for empty list, got %v", err)
	}
}

func TestCanAccessRecordOwnership(t *testing.T) {
	tenant := uint(7)
	other := uint(9)

	owner := &Principal{UserID: 1, perms: map[string]struct{}{}}
	if !owner.CanAccessRecord(1, nil, nil) {
		t.Fatalf("owner must access own record without tenant membership")
	}

	stranger := &Principal{UserID: 2, perms: map[string]struct{}{}}
	if stranger.CanAccessRecord(1, &tenant, nil) {
		t.Fatalf("non-owner without tenant membership must be denied")
	}

	member := &Principal{UserID: 2, TenantID: &tenant, perms: map[string]struct{}{}}
	if !member.CanAccessRecord(1, &tenant, nil) {
		t.Fatalf("tenant employee must access tenant record")
	}
	if member.CanAccessRecord(1, &other, nil) {
		t.Fatalf("member of a different tenant must be denied")
	}

	leaderID := uint(2)
	leader := &Principal{UserID: 2, perms: map[string]struct{}{}}
	if !leader.CanAccessRecord(1, &tenant, &leaderID) {
		t.Fatalf("tenant leader must access tenant record")
	}

	admin := &Principal{UserID: 3, Elevated: true, perms: map[string]struct{}{}}
	if !admin.CanAccessRecord(1, &tenant, nil) {
		t.Fatalf("elevated principal must bypass ownership checks")
	}
}

func TestCanAssignRole(t *testing.T) {
	if CanAssignRole(80, 80) {
		t.Fatalf("assigning an equal-rank role must be blocked")
	}
	if CanAssignRole(80, 100) {
		t.Fatalf("assigning a higher-rank role must be blocked")
	}
	if !CanAssignRole(80, 40) {
		t.Fatalf("assigning a lower-rank role must be allowed")
	}
}
