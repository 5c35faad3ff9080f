package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProfessionalDevelopmentEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TraineeID uuid.UUID `gorm:"type:uuid;not null;index" json:"trainee_id"`
	Trainee   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:TraineeID;references:ID" json:"trainee,omitempty"`

	ActivityDate    time.Time      `gorm:"not null" json:"activity_date"`
	ActivityDetails string         `gorm:"not null" json:"activity_details"`
	TopicsCovered   string         `json:"topics_covered,omitempty"`
	DurationMinutes int            `gorm:"not null;default:0" json:"duration_minutes"`
	CompetencyCodes datatypes.JSON `gorm:"type:jsonb" json:"competency_codes"`

	// Snapshot of the most recent quality evaluation, refreshed on save.
	LastQualityScore int    `gorm:"not null;default:0" json:"last_quality_score"`
	LastQualityTier  string `json:"last_quality_tier,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProfessionalDevelopmentEntry) TableName() string { return "professional_development_entry" }
