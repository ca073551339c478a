package model

import (
	"time"

	"gorm.io/gorm"
)

// AspectAssessment holds one participant's stored rating for one aspect.
// These rows are written by the scoring pipeline upstream of this engine
// and are strictly read-only here: every recalculation under overrides or
// active/inactive toggles happens in derived, in-memory computation.
type AspectAssessment struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	ParticipantID    uint           `json:"participant_id" gorm:"not null;index;uniqueIndex:idx_aspect_assessment_once,priority:1"`
	AspectID         uint           `json:"aspect_id" gorm:"not null;index;uniqueIndex:idx_aspect_assessment_once,priority:2"`
	IndividualRating float64        `json:"individual_rating" gorm:"not null"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// SubAspectAssessment is the sub-aspect counterpart of AspectAssessment,
// with the same read-only contract.
type SubAspectAssessment struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	ParticipantID    uint           `json:"participant_id" gorm:"not null;index;uniqueIndex:idx_sub_aspect_assessment_once,priority:1"`
	SubAspectID      uint           `json:"sub_aspect_id" gorm:"not null;index;uniqueIndex:idx_sub_aspect_assessment_once,priority:2"`
	IndividualRating float64        `json:"individual_rating" gorm:"not null"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}
