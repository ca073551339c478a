package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AspectConfig is one aspect's entry inside a CustomStandard. Rating is
// present only for aspects without sub-aspects; a nil Rating means the
// effective rating is computed from the sub-aspect entries.
type AspectConfig struct {
	Weight float64  `json:"weight"`
	Rating *float64 `json:"rating,omitempty"`
	Active bool     `json:"active"`
}

type SubAspectConfig struct {
	Rating float64 `json:"rating"`
	Active bool    `json:"active"`
}

// CustomStandard is an institution-owned override set for one template
// (layer 2 of the resolution chain). The config maps are keyed by
// category/aspect/sub-aspect code and stored as JSONB.
type CustomStandard struct {
	ID               uint                                          `gorm:"primarykey" json:"id"`
	InstitutionID    uint                                          `json:"institution_id" gorm:"not null;index"`
	TemplateID       uint                                          `json:"template_id" gorm:"not null;index"`
	Code             string                                        `json:"code" gorm:"not null;index:idx_custom_standards_institution_code"`
	Name             string                                        `json:"name" gorm:"not null"`
	Description      string                                        `json:"description,omitempty"`
	IsActive         bool                                          `json:"is_active" gorm:"default:true"`
	CategoryWeights  datatypes.JSONType[map[string]float64]        `json:"category_weights"`
	AspectConfigs    datatypes.JSONType[map[string]AspectConfig]   `json:"aspect_configs"`
	SubAspectConfigs datatypes.JSONType[map[string]SubAspectConfig] `json:"sub_aspect_configs"`
	CreatedAt        time.Time                                     `json:"created_at"`
	UpdatedAt        time.Time                                     `json:"updated_at"`
	DeletedAt        gorm.DeletedAt                                `gorm:"index" json:"-"`
}

// CategoryWeight returns the standard's weight for a category code, or nil
// when the standard does not specify one (fall through to quantum).
func (cs *CustomStandard) CategoryWeight(code string) *float64 {
	if cs == nil {
		return nil
	}
	if w, ok := cs.CategoryWeights.Data()[code]; ok {
		return &w
	}
	return nil
}

// AspectConfigFor returns the aspect entry for a code, or nil when absent.
func (cs *CustomStandard) AspectConfigFor(code string) *AspectConfig {
	if cs == nil {
		return nil
	}
	if cfg, ok := cs.AspectConfigs.Data()[code]; ok {
		return &cfg
	}
	return nil
}

func (cs *CustomStandard) SubAspectConfigFor(code string) *SubAspectConfig {
	if cs == nil {
		return nil
	}
	if cfg, ok := cs.SubAspectConfigs.Data()[code]; ok {
		return &cfg
	}
	return nil
}
