package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// User represents the user model stored in the database
type User struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Email     string `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password  string `json:"-" gorm:"type:varchar(255)"`
	FirstName string `json:"first_name" gorm:"type:varchar(100)"`
	LastName  string `json:"last_name" gorm:"type:varchar(100)"`

	RoleID uint `json:"role_id" gorm:"index;not null"`
	Role   Role `json:"role,omitempty" gorm:"foreignKey:RoleID"`

	// Optional tenant membership as an employee. Tenant leadership is
	// recorded on the tenant itself.
	TenantID *uint `json:"tenant_id,omitempty" gorm:"index"`

	Active     bool `json:"active" gorm:"default:true"`
	Anonymized bool `json:"anonymized" gorm:"default:false"`

	// Login lockout state
	FailedLoginAttempts int        `json:"-" gorm:"default:0"`
	LockedUntil         *time.Time `json:"-"`

	// Single-use password reset token
	ResetToken  *string    `json:"-" gorm:"type:varchar(255);index"`
	ResetExpiry *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Locked reports whether the account is currently locked out
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// ClearLockout resets the failed-attempt counter and lock timestamp
func (u *User) ClearLockout() {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
}

// Anonymize overwrites all PII on the record. This is a terminal state: an
// anonymized user cannot log in or be restored.
func (u *User) Anonymize() {
	u.Email = fmt.Sprintf("anonymized-%d@redacted.local", u.ID)
	u.FirstName = ""
	u.LastName = ""
	u.Password = ""
	u.ResetToken = nil
	u.ResetExpiry = nil
	u.Active = false
	u.Anonymized = true
}
