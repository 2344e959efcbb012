package model

import (
	"time"

	"gorm.io/gorm"
)

// Tenant represents an organizational grouping. A tenant has one optional
// leader and any number of employee users (users whose TenantID points here),
// and owns projects and documents.
type Tenant struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Code        string `json:"code" gorm:"type:varchar(20);uniqueIndex"`
	Name        string `json:"name" gorm:"type:varchar(100)"`
	Description string `json:"description" gorm:"type:text"`

	LeaderID *uint `json:"leader_id,omitempty" gorm:"index"`
	Leader   *User `json:"leader,omitempty" gorm:"foreignKey:LeaderID"`

	Active bool `json:"active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// HasMember reports whether the given user is the tenant's leader or one of
// its employees
func (t *Tenant) HasMember(userID uint, userTenantID *uint) bool {
	if t.LeaderID != nil && *t.LeaderID == userID {
		return true
	}
	return userTenantID != nil && *userTenantID == t.ID
}
