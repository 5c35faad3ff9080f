package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Supervision modes recognised by the board's supervision-hour policy.
const (
	ModeDirectInPerson = "direct_in_person"
	ModeDirectVideo    = "direct_video"
	ModeDirectPhone    = "direct_phone"
	ModeIndirect       = "indirect"
)

type SupervisionEntry struct {
	ID                      uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TraineeID               uuid.UUID      `gorm:"type:uuid;not null;index" json:"trainee_id"`
	Trainee                 *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:TraineeID;references:ID" json:"trainee,omitempty"`
	SupervisorID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"supervisor_id"`
	Supervisor              *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:SupervisorID;references:ID" json:"supervisor,omitempty"`
	SessionDate             time.Time      `gorm:"not null" json:"session_date"`
	DurationMinutes         int            `gorm:"not null" json:"duration_minutes"`
	Mode                    string         `gorm:"not null" json:"mode"`
	IsCultural              bool           `gorm:"not null;default:false" json:"is_cultural"`
	IsIndividual            bool           `gorm:"not null;default:true" json:"is_individual"`
	SupervisorBoardApproved bool           `gorm:"not null;default:false" json:"supervisor_board_approved"`
	Summary                 string         `json:"summary,omitempty"`
	CreatedAt               time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt               time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt               gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SupervisionEntry) TableName() string { return "supervision_entry" }

func ValidSupervisionMode(mode string) bool {
	switch mode {
	case ModeDirectInPerson, ModeDirectVideo, ModeDirectPhone, ModeIndirect:
		return true
	}
	return false
}

func IsDirectMode(mode string) bool {
	switch mode {
	case ModeDirectInPerson, ModeDirectVideo, ModeDirectPhone:
		return true
	}
	return false
}
