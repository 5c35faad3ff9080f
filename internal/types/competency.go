package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AHPRA competency reference data. Seeded, read-only through the API.

type Competency struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code        string    `gorm:"uniqueIndex;not null" json:"code"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description,omitempty"`

	Descriptors []*CompetencyDescriptor `gorm:"foreignKey:CompetencyID;references:ID" json:"descriptors,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Competency) TableName() string { return "competency" }

// CompetencyDescriptor is a fine-grained sub-item of a competency
// (e.g. "1.2"), used for tagging EPAs and logbook entries.
type CompetencyDescriptor struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CompetencyID uuid.UUID   `gorm:"type:uuid;not null;index" json:"competency_id"`
	Competency   *Competency `gorm:"constraint:OnDelete:CASCADE;foreignKey:CompetencyID;references:ID" json:"competency,omitempty"`
	Code         string      `gorm:"uniqueIndex;not null" json:"code"`
	Text         string      `gorm:"not null" json:"text"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CompetencyDescriptor) TableName() string { return "competency_descriptor" }

// EPA is an entrustable professional activity mapped onto descriptor codes.
type EPA struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code            string         `gorm:"uniqueIndex;not null" json:"code"`
	Title           string         `gorm:"not null" json:"title"`
	Description     string         `json:"description,omitempty"`
	DescriptorCodes datatypes.JSON `gorm:"type:jsonb" json:"descriptor_codes"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (EPA) TableName() string { return "epa" }
