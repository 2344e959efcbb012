package model

import (
	"time"

	"gorm.io/gorm"
)

// Project statuses
const (
	ProjectStatusFraming    = "Framing"
	ProjectStatusDesign     = "Design"
	ProjectStatusDeployment = "Deployment"
	ProjectStatusCompleted  = "Completed"
)

// ValidProjectStatus reports whether the given status is one of the known
// lifecycle stages
func ValidProjectStatus(status string) bool {
	switch status {
	case ProjectStatusFraming, ProjectStatusDesign, ProjectStatusDeployment, ProjectStatusCompleted:
		return true
	}
	return false
}

// Project represents a project owned by a user and optionally scoped to a
// tenant
type Project struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Code        string `json:"code" gorm:"type:varchar(20);uniqueIndex"`
	Name        string `json:"name" gorm:"type:varchar(150)"`
	Description string `json:"description" gorm:"type:text"`

	OwnerID  uint  `json:"owner_id" gorm:"index;not null"`
	TenantID *uint `json:"tenant_id,omitempty" gorm:"index"`

	Status string `json:"status" gorm:"type:varchar(30);default:'Framing'"`

	// Score is derived: the rounded mean of the non-null linked indicator
	// scores, or null when no linked indicator carries a score. Never set
	// directly by callers.
	Score *float64 `json:"score"`

	Domains []string `json:"domains" gorm:"serializer:json"`
	Pillars []string `json:"pillars" gorm:"serializer:json"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// ProjectStatusHistory records one status transition of a project
type ProjectStatusHistory struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ProjectID  uint      `json:"project_id" gorm:"index;not null"`
	FromStatus string    `json:"from_status" gorm:"type:varchar(30)"`
	ToStatus   string    `json:"to_status" gorm:"type:varchar(30)"`
	ChangedBy  uint      `json:"changed_by"`
	CreatedAt  time.Time `json:"created_at"`
}
