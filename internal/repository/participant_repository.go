package repository

import (
	"github.com/quantumhc/assessment/internal/model"
	"gorm.io/gorm"
)

type ParticipantRepository interface {
	// FindByEventAndPosition returns the participant pool a ranking runs
	// over, ordered by name so downstream tie-breaks are stable.
	FindByEventAndPosition(eventID, positionID uint) ([]model.Participant, error)
	FindByID(id uint) (*model.Participant, error)
}

type participantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) FindByEventAndPosition(eventID, positionID uint) ([]model.Participant, error) {
	var participants []model.Participant
	err := r.db.
		Where("event_id = ? AND position_id = ?", eventID, positionID).
		Order("name ASC").
		Find(&participants).Error
	return participants, err
}

func (r *participantRepository) FindByID(id uint) (*model.Participant, error) {
	var participant model.Participant
	err := r.db.First(&participant, id).Error
	return &participant, err
}
