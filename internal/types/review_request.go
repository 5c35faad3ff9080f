package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReviewRequestPending    = "pending"
	ReviewRequestInProgress = "in_progress"
	ReviewRequestCompleted  = "completed"
	ReviewRequestDismissed  = "dismissed"
)

const (
	ReviewPriorityLow    = "low"
	ReviewPriorityMedium = "medium"
	ReviewPriorityHigh   = "high"
)

// LogbookReviewRequest is a supervisor's change request against one logbook.
// Immutable once completed.
type LogbookReviewRequest struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LogbookID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"logbook_id"`
	Logbook      *WeeklyLogbook `gorm:"constraint:OnDelete:CASCADE;foreignKey:LogbookID;references:ID" json:"logbook,omitempty"`
	SupervisorID uuid.UUID      `gorm:"type:uuid;not null;index" json:"supervisor_id"`
	Supervisor   *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:SupervisorID;references:ID" json:"supervisor,omitempty"`

	RequestType     string `gorm:"not null" json:"request_type"`
	TargetSection   string `json:"target_section,omitempty"`
	Status          string `gorm:"not null;default:'pending'" json:"status"`
	Priority        string `gorm:"not null;default:'medium'" json:"priority"`
	Comment         string `gorm:"not null" json:"comment"`
	TraineeResponse string `json:"trainee_response,omitempty"`
	SupervisorNotes string `json:"supervisor_notes,omitempty"`

	RequestedAt time.Time  `gorm:"not null" json:"requested_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LogbookReviewRequest) TableName() string { return "logbook_review_request" }

// OpenReviewRequest reports whether the request still needs trainee action.
func OpenReviewRequest(status string) bool {
	return status == ReviewRequestPending || status == ReviewRequestInProgress
}
