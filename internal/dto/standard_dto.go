package dto

import (
	"time"

	"github.com/quantumhc/assessment/internal/model"
)

type CustomStandardCreateDTO struct {
	InstitutionID    uint                             `json:"institution_id" binding:"required"`
	TemplateID       uint                             `json:"template_id" binding:"required"`
	Code             string                           `json:"code" binding:"required"`
	Name             string                           `json:"name" binding:"required"`
	Description      string                           `json:"description"`
	CategoryWeights  map[string]float64               `json:"category_weights" binding:"required"`
	AspectConfigs    map[string]model.AspectConfig    `json:"aspect_configs" binding:"required"`
	SubAspectConfigs map[string]model.SubAspectConfig `json:"sub_aspect_configs"`
}

type CustomStandardUpdateDTO struct {
	Code             string                           `json:"code" binding:"required"`
	Name             string                           `json:"name" binding:"required"`
	Description      string                           `json:"description"`
	IsActive         *bool                            `json:"is_active"`
	CategoryWeights  map[string]float64               `json:"category_weights" binding:"required"`
	AspectConfigs    map[string]model.AspectConfig    `json:"aspect_configs" binding:"required"`
	SubAspectConfigs map[string]model.SubAspectConfig `json:"sub_aspect_configs"`
}

type CustomStandardResponseDTO struct {
	ID               uint                             `json:"id"`
	InstitutionID    uint                             `json:"institution_id"`
	TemplateID       uint                             `json:"template_id"`
	Code             string                           `json:"code"`
	Name             string                           `json:"name"`
	Description      string                           `json:"description,omitempty"`
	IsActive         bool                             `json:"is_active"`
	CategoryWeights  map[string]float64               `json:"category_weights"`
	AspectConfigs    map[string]model.AspectConfig    `json:"aspect_configs"`
	SubAspectConfigs map[string]model.SubAspectConfig `json:"sub_aspect_configs"`
	CreatedAt        time.Time                        `json:"created_at"`
	UpdatedAt        time.Time                        `json:"updated_at"`
}

// TemplateDefaultsDTO mirrors the CustomStandard config shape, seeded from
// quantum data. Used to prefill the standard-editing form.
type TemplateDefaultsDTO struct {
	TemplateID       uint                             `json:"template_id"`
	CategoryWeights  map[string]float64               `json:"category_weights"`
	AspectConfigs    map[string]model.AspectConfig    `json:"aspect_configs"`
	SubAspectConfigs map[string]model.SubAspectConfig `json:"sub_aspect_configs"`
}

type TemplateSummaryDTO struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}
