package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Logbook sections follow the board's weekly logbook template:
// A — psychological practice (client work), B — supervision received,
// C — professional development.
const (
	SectionPractice    = "A"
	SectionSupervision = "B"
	SectionPD          = "C"
)

type LogbookEntry struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LogbookID uuid.UUID      `gorm:"type:uuid;not null;index:idx_logbook_section" json:"logbook_id"`
	Logbook   *WeeklyLogbook `gorm:"constraint:OnDelete:CASCADE;foreignKey:LogbookID;references:ID" json:"logbook,omitempty"`
	Section   string         `gorm:"not null;index:idx_logbook_section" json:"section"`

	// Position keeps each section's entries in the order the trainee listed
	// them.
	Position int `gorm:"not null;default:0" json:"position"`

	ActivityDate    time.Time      `gorm:"not null" json:"activity_date"`
	Description     string         `gorm:"not null" json:"description"`
	DurationMinutes int            `gorm:"not null;default:0" json:"duration_minutes"`
	IsDirectContact bool           `gorm:"not null;default:false" json:"is_direct_contact"`
	CompetencyCodes datatypes.JSON `gorm:"type:jsonb" json:"competency_codes"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LogbookEntry) TableName() string { return "logbook_entry" }

func ValidLogbookSection(s string) bool {
	return s == SectionPractice || s == SectionSupervision || s == SectionPD
}
