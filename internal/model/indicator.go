package model

import (
	"time"
)

// Pillar classifications applied to indicators and projects
const (
	PillarOperating     = "Operating"
	PillarEnvironmental = "Environmental"
	PillarSafety        = "Safety"
)

// PerformanceIndicator is a node in the self-referential indicator tree.
// Names are globally unique across the whole tree, not per sibling set.
// Indicators are hard-deleted, never soft-deleted.
type PerformanceIndicator struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"type:varchar(150);uniqueIndex"`
	Description string `json:"description" gorm:"type:text"`

	ParentID *uint `json:"parent_id,omitempty" gorm:"index"`

	MinScore *float64 `json:"min_score,omitempty"`
	MaxScore *float64 `json:"max_score,omitempty"`
	Pillar   *string  `json:"pillar,omitempty" gorm:"type:varchar(30)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectIndicator links a project to an indicator and carries the
// per-project score for it. Link sets are replaced wholesale on update.
type ProjectIndicator struct {
	ID          uint                 `json:"id" gorm:"primaryKey"`
	ProjectID   uint                 `json:"project_id" gorm:"index:idx_project_indicator,unique;not null"`
	IndicatorID uint                 `json:"indicator_id" gorm:"index:idx_project_indicator,unique;not null"`
	Score       *float64             `json:"score,omitempty"`
	Indicator   PerformanceIndicator `json:"indicator,omitempty" gorm:"foreignKey:IndicatorID"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}
