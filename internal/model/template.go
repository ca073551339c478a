package model

import (
	"time"

	"gorm.io/gorm"
)

// Category codes used throughout the platform. Every assessment template
// carries exactly these two categories.
const (
	CategoryPotensi    = "potensi"
	CategoryKompetensi = "kompetensi"
)

// AssessmentTemplate is the root of the quantum-default structure: its
// categories, aspects and sub-aspects carry the layer-3 baseline values.
type AssessmentTemplate struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	Code       string         `json:"code" gorm:"not null;uniqueIndex"`
	Name       string         `json:"name" gorm:"not null"`
	Categories []CategoryType `json:"categories,omitempty" gorm:"foreignKey:TemplateID"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

type CategoryType struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	TemplateID       uint           `json:"template_id" gorm:"not null;index"`
	Code             string         `json:"code" gorm:"not null"` // "potensi", "kompetensi"
	Name             string         `json:"name" gorm:"not null"`
	WeightPercentage float64        `json:"weight_percentage" gorm:"not null"`
	OrderNumber      int            `json:"order_number" gorm:"not null"`
	Aspects          []Aspect       `json:"aspects,omitempty" gorm:"foreignKey:CategoryTypeID"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// Aspect is an assessable unit. StandardRating is nil for aspects that own
// sub-aspects; their effective rating is computed as the average of the
// active sub-aspect ratings instead of being stored.
type Aspect struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	TemplateID       uint           `json:"template_id" gorm:"not null;index"`
	CategoryTypeID   uint           `json:"category_type_id" gorm:"not null;index"`
	Code             string         `json:"code" gorm:"not null"`
	Name             string         `json:"name" gorm:"not null"`
	WeightPercentage float64        `json:"weight_percentage" gorm:"not null"`
	StandardRating   *float64       `json:"standard_rating,omitempty"`
	OrderNumber      int            `json:"order_number" gorm:"not null"`
	SubAspects       []SubAspect    `json:"sub_aspects,omitempty" gorm:"foreignKey:AspectID"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasSubAspects reports whether the aspect's rating is computed rather
// than stored.
func (a *Aspect) HasSubAspects() bool {
	return len(a.SubAspects) > 0
}

type SubAspect struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	AspectID       uint           `json:"aspect_id" gorm:"not null;index"`
	Code           string         `json:"code" gorm:"not null"`
	Name           string         `json:"name" gorm:"not null"`
	StandardRating float64        `json:"standard_rating" gorm:"not null"`
	OrderNumber    int            `json:"order_number" gorm:"not null"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
