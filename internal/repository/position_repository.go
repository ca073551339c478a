package repository

import (
	"github.com/quantumhc/assessment/internal/model"
	"gorm.io/gorm"
)

type PositionRepository interface {
	// TemplatesForInstitution returns the distinct templates the
	// institution has position formations against, ordered by name.
	TemplatesForInstitution(institutionID uint) ([]model.AssessmentTemplate, error)
	FindByID(id uint) (*model.PositionFormation, error)
}

type positionRepository struct {
	db *gorm.DB
}

func NewPositionRepository(db *gorm.DB) PositionRepository {
	return &positionRepository{db: db}
}

func (r *positionRepository) TemplatesForInstitution(institutionID uint) ([]model.AssessmentTemplate, error) {
	var templates []model.AssessmentTemplate
	err := r.db.
		Model(&model.AssessmentTemplate{}).
		Distinct("assessment_templates.*").
		Joins("JOIN position_formations ON position_formations.template_id = assessment_templates.id").
		Where("position_formations.institution_id = ? AND position_formations.deleted_at IS NULL", institutionID).
		Order("assessment_templates.name ASC").
		Find(&templates).Error
	return templates, err
}

func (r *positionRepository) FindByID(id uint) (*model.PositionFormation, error) {
	var position model.PositionFormation
	err := r.db.First(&position, id).Error
	return &position, err
}
