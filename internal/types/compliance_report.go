package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SupervisionComplianceReport is the persisted snapshot of a trainee's
// compliance evaluation. It is entirely derived from the trainee's
// supervision entries and observations; one row per trainee, replaced on
// every recalculation.
type SupervisionComplianceReport struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TraineeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"trainee_id"`
	Trainee   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:TraineeID;references:ID" json:"trainee,omitempty"`

	TotalHours          float64 `gorm:"not null;default:0" json:"total_hours"`
	DirectInPersonHours float64 `gorm:"not null;default:0" json:"direct_in_person_hours"`
	DirectVideoHours    float64 `gorm:"not null;default:0" json:"direct_video_hours"`
	DirectPhoneHours    float64 `gorm:"not null;default:0" json:"direct_phone_hours"`
	IndirectHours       float64 `gorm:"not null;default:0" json:"indirect_hours"`
	IndividualHours     float64 `gorm:"not null;default:0" json:"individual_hours"`
	GroupHours          float64 `gorm:"not null;default:0" json:"group_hours"`
	CulturalHours       float64 `gorm:"not null;default:0" json:"cultural_hours"`
	BoardApprovedHours  float64 `gorm:"not null;default:0" json:"board_approved_hours"`

	AssessmentObservations   int `gorm:"not null;default:0" json:"assessment_observations"`
	InterventionObservations int `gorm:"not null;default:0" json:"intervention_observations"`

	MeetsTotalHours         bool `gorm:"not null;default:false" json:"meets_total_hours"`
	MeetsIndividualRatio    bool `gorm:"not null;default:false" json:"meets_individual_ratio"`
	MeetsDirectRatio        bool `gorm:"not null;default:false" json:"meets_direct_ratio"`
	MeetsCulturalHours      bool `gorm:"not null;default:false" json:"meets_cultural_hours"`
	MeetsObservationCount   bool `gorm:"not null;default:false" json:"meets_observation_count"`
	MeetsBoardApprovedRatio bool `gorm:"not null;default:false" json:"meets_board_approved_ratio"`
	IsCompliant             bool `gorm:"not null;default:false" json:"is_compliant"`

	Warnings         datatypes.JSON `gorm:"type:jsonb" json:"warnings"`
	LastCalculatedAt time.Time      `gorm:"not null" json:"last_calculated_at"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SupervisionComplianceReport) TableName() string { return "supervision_compliance_report" }
