package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification event types emitted by the review state machine and the
// expiry sweeps.
const (
	EventReviewRequested = "REVIEW_REQUESTED"
	EventLogbookApproved = "LOGBOOK_APPROVED"
	EventLogbookRejected = "LOGBOOK_REJECTED"
	EventExpired         = "EXPIRED"
	EventReminderSent    = "REMINDER_SENT"
)

// Notification is the persisted in-app copy of a dispatched event. DedupeKey
// makes dispatch idempotent: re-delivering the same event for the same
// subject and transition inserts nothing new.
type Notification struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Recipient   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:RecipientID;references:ID" json:"recipient,omitempty"`

	EventType   string         `gorm:"not null;index" json:"event_type"`
	SubjectType string         `gorm:"not null" json:"subject_type"`
	SubjectID   uuid.UUID      `gorm:"type:uuid;not null" json:"subject_id"`
	DedupeKey   string         `gorm:"uniqueIndex;not null" json:"-"`
	Payload     datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	ReadAt      *time.Time     `json:"read_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Notification) TableName() string { return "notification" }
