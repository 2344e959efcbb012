package model

import (
	"time"

	"gorm.io/gorm"
)

// Role represents a named bundle of permissions. Roles are seeded at startup;
// the admin API can create more but normal operation works off the seed set.
type Role struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"type:varchar(50);uniqueIndex"`
	Description string `json:"description" gorm:"type:text"`

	// Rank orders roles for privilege comparison: an actor may only assign
	// roles of strictly lower rank than its own.
	Rank int `json:"rank" gorm:"not null;default:0"`

	// Elevated roles bypass ownership and tenant-membership checks, and
	// records holding them cannot be mutated or removed through the API.
	Elevated bool `json:"elevated" gorm:"default:false"`

	Permissions []Permission `json:"permissions,omitempty" gorm:"many2many:role_permissions;"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// PermissionKeys returns the flattened permission key set of the role
func (r *Role) PermissionKeys() []string {
	keys := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		keys = append(keys, p.Key)
	}
	return keys
}
