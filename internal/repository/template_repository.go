package repository

import (
	"github.com/quantumhc/assessment/internal/model"
	"gorm.io/gorm"
)

type TemplateRepository interface {
	FindByID(id uint) (*model.AssessmentTemplate, error)
	// FindByIDWithTree loads the full quantum structure: categories with
	// their aspects and sub-aspects, each level in its defined order.
	FindByIDWithTree(id uint) (*model.AssessmentTemplate, error)
}

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) FindByID(id uint) (*model.AssessmentTemplate, error) {
	var template model.AssessmentTemplate
	err := r.db.First(&template, id).Error
	return &template, err
}

func (r *templateRepository) FindByIDWithTree(id uint) (*model.AssessmentTemplate, error) {
	var template model.AssessmentTemplate
	err := r.db.
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("category_types.order_number ASC")
		}).
		Preload("Categories.Aspects", func(db *gorm.DB) *gorm.DB {
			return db.Order("aspects.order_number ASC")
		}).
		Preload("Categories.Aspects.SubAspects", func(db *gorm.DB) *gorm.DB {
			return db.Order("sub_aspects.order_number ASC")
		}).
		First(&template, id).Error
	return &template, err
}
