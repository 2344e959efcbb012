package model

import (
	"gorm.io/gorm"
)

// Canonical role names
const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleUser       = "user"
	RoleViewer     = "viewer"
)

var seedPermissions = []Permission{
	{Key: "user:create", Description: "Create users"},
	{Key: "user:read", Description: "Read users"},
	{Key: "user:update", Description: "Update users"},
	{Key: "user:delete", Description: "Delete users"},
	{Key: "user:anonymize", Description: "Anonymize user records"},
	{Key: "user:unlock", Description: "Unlock locked accounts"},
	{Key: "role:create", Description: "Create roles"},
	{Key: "role:read", Description: "Read roles and permissions"},
	{Key: "role:update", Description: "Update roles and permission assignments"},
	{Key: "tenant:create", Description: "Create tenants"},
	{Key: "tenant:read", Description: "Read tenants"},
	{Key: "tenant:update", Description: "Update tenants and membership"},
	{Key: "tenant:delete", Description: "Delete tenants"},
	{Key: "project:create", Description: "Create projects"},
	{Key: "project:read", Description: "Read projects"},
	{Key: "project:update", Description: "Update projects and indicator links"},
	{Key: "project:delete", Description: "Delete projects"},
	{Key: "indicator:create", Description: "Create performance indicators"},
	{Key: "indicator:read", Description: "Read the indicator hierarchy"},
	{Key: "indicator:update", Description: "Update performance indicators"},
	{Key: "indicator:delete", Description: "Delete performance indicators"},
	{Key: "document:create", Description: "Upload documents"},
	{Key: "document:read", Description: "Read documents"},
	{Key: "document:delete", Description: "Delete documents"},
	{Key: "country:read", Description: "Read the country reference list"},
	{Key: "dashboard:read", Description: "Read dashboard statistics"},
}

// rolePermissionKeys maps each seeded role to the permission keys it carries
var rolePermissionKeys = map[string][]string{
	RoleSuperAdmin: allPermissionKeys(),
	RoleAdmin:      allPermissionKeys(),
	RoleManager: {
		"user:read",
		"tenant:read", "tenant:update",
		"project:create", "project:read", "project:update", "project:delete",
		"indicator:read",
		"document:create", "document:read", "document:delete",
		"country:read", "dashboard:read",
	},
	RoleUser: {
		"tenant:read",
		"project:create", "project:read", "project:update",
		"indicator:read",
		"document:create", "document:read",
		"country:read", "dashboard:read",
	},
	RoleViewer: {
		"tenant:read",
		"project:read",
		"indicator:read",
		"document:read",
		"country:read", "dashboard:read",
	},
}

var seedRoles = []Role{
	{Name: RoleSuperAdmin, Description: "Full administrative access", Rank: 100, Elevated: true},
	{Name: RoleAdmin, Description: "Administrative access", Rank: 80, Elevated: true},
	{Name: RoleManager, Description: "Tenant-scoped management", Rank: 60},
	{Name: RoleUser, Description: "Standard user, restricted to owned or tenant records", Rank: 40},
	{Name: RoleViewer, Description: "Read-only access to owned or tenant records", Rank: 20},
}

func allPermissionKeys() []string {
	keys := make([]string, 0, len(seedPermissions))
	for _, p := range seedPermissions {
		keys = append(keys, p.Key)
	}
	return keys
}

// SeedRBAC installs the canonical permission matrix and roles. Safe to run on
// every startup; existing rows are left untouched.
func SeedRBAC(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		byKey := make(map[string]Permission, len(seedPermissions))
		for _, p := range seedPermissions {
			perm := p
			if err := tx.Where(Permission{Key: p.Key}).FirstOrCreate(&perm).Error; err != nil {
				return err
			}
			byKey[perm.Key] = perm
		}

		for _, r := range seedRoles {
			role := r
			if err := tx.Where(Role{Name: r.Name}).FirstOrCreate(&role).Error; err != nil {
				return err
			}

			perms := make([]Permission, 0, len(rolePermissionKeys[role.Name]))
			for _, key := range rolePermissionKeys[role.Name] {
				perms = append(perms, byKey[key])
			}
			if err := tx.Model(&role).Association("Permissions").Replace(perms); err != nil {
				return err
			}
		}

		return nil
	})
}
