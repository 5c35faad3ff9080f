package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ObservationAssessment   = "assessment"
	ObservationIntervention = "intervention"
)

// SupervisionObservation records a supervisor directly observing the trainee
// delivering an assessment or intervention. Observations count toward the
// observation requirement only; their duration never feeds hour totals.
type SupervisionObservation struct {
	ID                 uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TraineeID          uuid.UUID         `gorm:"type:uuid;not null;index" json:"trainee_id"`
	Trainee            *User             `gorm:"constraint:OnDelete:CASCADE;foreignKey:TraineeID;references:ID" json:"trainee,omitempty"`
	SupervisorID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"supervisor_id"`
	Supervisor         *User             `gorm:"constraint:OnDelete:CASCADE;foreignKey:SupervisorID;references:ID" json:"supervisor,omitempty"`
	ObservationType    string            `gorm:"not null" json:"observation_type"`
	SupervisionEntryID *uuid.UUID        `gorm:"type:uuid;index" json:"supervision_entry_id,omitempty"`
	SupervisionEntry   *SupervisionEntry `gorm:"constraint:OnDelete:SET NULL;foreignKey:SupervisionEntryID;references:ID" json:"supervision_entry,omitempty"`
	ObservedAt         time.Time         `gorm:"not null" json:"observed_at"`
	DurationMinutes    int               `gorm:"not null;default:0" json:"duration_minutes"`
	Notes              string            `json:"notes,omitempty"`
	CreatedAt          time.Time         `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt          gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

func (SupervisionObservation) TableName() string { return "supervision_observation" }

func ValidObservationType(t string) bool {
	return t == ObservationAssessment || t == ObservationIntervention
}
