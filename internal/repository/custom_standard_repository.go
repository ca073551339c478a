package repository

import (
	"github.com/quantumhc/assessment/internal/model"
	"gorm.io/gorm"
)

type CustomStandardRepository interface {
	Create(standard *model.CustomStandard) error
	Update(standard *model.CustomStandard) error
	Delete(id uint) error
	FindByID(id uint) (*model.CustomStandard, error)
	// FindForInstitution returns the institution's active standards for a
	// template, ordered by name.
	FindForInstitution(institutionID, templateID uint) ([]model.CustomStandard, error)
	// CountByCode counts standards with the given code inside one
	// institution, optionally excluding one record (for updates).
	CountByCode(institutionID uint, code string, excludeID *uint) (int64, error)
}

type customStandardRepository struct {
	db *gorm.DB
}

func NewCustomStandardRepository(db *gorm.DB) CustomStandardRepository {
	return &customStandardRepository{db: db}
}

func (r *customStandardRepository) Create(standard *model.CustomStandard) error {
	return r.db.Create(standard).Error
}

func (r *customStandardRepository) Update(standard *model.CustomStandard) error {
	return r.db.Save(standard).Error
}

func (r *customStandardRepository) Delete(id uint) error {
	return r.db.Delete(&model.CustomStandard{}, id).Error
}

func (r *customStandardRepository) FindByID(id uint) (*model.CustomStandard, error) {
	var standard model.CustomStandard
	err := r.db.First(&standard, id).Error
	return &standard, err
}

func (r *customStandardRepository) FindForInstitution(institutionID, templateID uint) ([]model.CustomStandard, error) {
	var standards []model.CustomStandard
	err := r.db.
		Where("institution_id = ? AND template_id = ? AND is_active = ?", institutionID, templateID, true).
		Order("name ASC").
		Find(&standards).Error
	return standards, err
}

func (r *customStandardRepository) CountByCode(institutionID uint, code string, excludeID *uint) (int64, error) {
	query := r.db.Model(&model.CustomStandard{}).
		Where("institution_id = ? AND code = ?", institutionID, code)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}
