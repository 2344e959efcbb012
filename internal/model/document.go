package model

import (
	"time"

	"gorm.io/gorm"
)

// Document represents an uploaded document's metadata. The content itself
// lives with the blob storage provider; URL is whatever the provider returned
// on upload.
type Document struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"type:varchar(200)"`
	Key         string `json:"key" gorm:"type:varchar(100);uniqueIndex"`
	ContentType string `json:"content_type" gorm:"type:varchar(100)"`
	Size        int64  `json:"size"`
	URL         string `json:"url" gorm:"type:text"`

	OwnerID   uint  `json:"owner_id" gorm:"index;not null"`
	TenantID  *uint `json:"tenant_id,omitempty" gorm:"index"`
	ProjectID *uint `json:"project_id,omitempty" gorm:"index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
