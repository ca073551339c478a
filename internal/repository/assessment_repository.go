package repository

import (
	"github.com/quantumhc/assessment/internal/model"
	"gorm.io/gorm"
)

// AssessmentRepository reads stored individual ratings. It is read-only by
// contract: the ranking engine never mutates assessment rows, every
// recalculation happens in memory.
type AssessmentRepository interface {
	// AspectRatings returns participant -> aspect -> stored rating for the
	// given participant and aspect sets.
	AspectRatings(participantIDs, aspectIDs []uint) (map[uint]map[uint]float64, error)
	// SubAspectRatings returns participant -> sub-aspect -> stored rating.
	SubAspectRatings(participantIDs, subAspectIDs []uint) (map[uint]map[uint]float64, error)
}

type assessmentRepository struct {
	db *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) AspectRatings(participantIDs, aspectIDs []uint) (map[uint]map[uint]float64, error) {
	out := make(map[uint]map[uint]float64)
	if len(participantIDs) == 0 || len(aspectIDs) == 0 {
		return out, nil
	}
	var rows []model.AspectAssessment
	err := r.db.
		Where("participant_id IN ? AND aspect_id IN ?", participantIDs, aspectIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if out[row.ParticipantID] == nil {
			out[row.ParticipantID] = make(map[uint]float64)
		}
		out[row.ParticipantID][row.AspectID] = row.IndividualRating
	}
	return out, nil
}

func (r *assessmentRepository) SubAspectRatings(participantIDs, subAspectIDs []uint) (map[uint]map[uint]float64, error) {
	out := make(map[uint]map[uint]float64)
	if len(participantIDs) == 0 || len(subAspectIDs) == 0 {
		return out, nil
	}
	var rows []model.SubAspectAssessment
	err := r.db.
		Where("participant_id IN ? AND sub_aspect_id IN ?", participantIDs, subAspectIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if out[row.ParticipantID] == nil {
			out[row.ParticipantID] = make(map[uint]float64)
		}
		out[row.ParticipantID][row.SubAspectID] = row.IndividualRating
	}
	return out, nil
}
