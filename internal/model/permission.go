package model

import (
	"time"
)

// Permission represents an atomic capability, keyed as "resource:action"
// (for example "project:read" or "user:anonymize"). Permissions are
// effectively immutable once a role references them.
type Permission struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Key         string    `json:"key" gorm:"type:varchar(100);uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
