package model

import (
	"time"

	"gorm.io/gorm"
)

type Institution struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Code      string         `json:"code" gorm:"not null;uniqueIndex"`
	Name      string         `json:"name" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PositionFormation ties an institution to a template: the institution
// assesses candidates for this position against that template.
type PositionFormation struct {
	ID            uint               `gorm:"primarykey" json:"id"`
	InstitutionID uint               `json:"institution_id" gorm:"not null;index"`
	TemplateID    uint               `json:"template_id" gorm:"not null;index"`
	Template      AssessmentTemplate `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
	Name          string             `json:"name" gorm:"not null"`
	Quota         int                `json:"quota" gorm:"default:0"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	DeletedAt     gorm.DeletedAt     `gorm:"index" json:"-"`
}

type AssessmentEvent struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	InstitutionID uint           `json:"institution_id" gorm:"not null;index"`
	Name          string         `json:"name" gorm:"not null"`
	Year          int            `json:"year" gorm:"not null"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

type Participant struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	EventID    uint           `json:"event_id" gorm:"not null;index"`
	PositionID uint           `json:"position_id" gorm:"not null;index"`
	Name       string         `json:"name" gorm:"not null"`
	TestNumber string         `json:"test_number,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
