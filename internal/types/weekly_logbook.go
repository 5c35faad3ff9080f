package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Weekly logbook review lifecycle. A logbook is never deleted; it only moves
// forward through these states. under_review was folded back into submitted —
// opening a review sets review_started_at without changing status.
const (
	LogbookStatusDraft            = "draft"
	LogbookStatusSubmitted        = "submitted"
	LogbookStatusReturnedForEdits = "returned_for_edits"
	LogbookStatusApproved         = "approved"
	LogbookStatusRejected         = "rejected"
	LogbookStatusLocked           = "locked"
)

type WeeklyLogbook struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TraineeID uuid.UUID `gorm:"type:uuid;not null;index:idx_trainee_week,unique" json:"trainee_id"`
	Trainee   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:TraineeID;references:ID" json:"trainee,omitempty"`
	WeekStart time.Time `gorm:"not null;index:idx_trainee_week,unique" json:"week_start"`
	WeekEnd   time.Time `gorm:"not null" json:"week_end"`
	Status    string    `gorm:"not null;default:'draft'" json:"status"`

	Entries []*LogbookEntry `gorm:"foreignKey:LogbookID;references:ID" json:"entries,omitempty"`

	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ReviewStartedAt *time.Time `json:"review_started_at,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	LockedAt        *time.Time `json:"locked_at,omitempty"`

	ChangeRequestsCount int `gorm:"not null;default:0" json:"change_requests_count"`
	ResubmissionCount   int `gorm:"not null;default:0" json:"resubmission_count"`

	// Ids of review requests still awaiting the trainee, stored as a JSON
	// array of uuids. Always a subset of the logbook's open review requests.
	PendingChangeRequests datatypes.JSON `gorm:"type:jsonb" json:"pending_change_requests"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (WeeklyLogbook) TableName() string { return "weekly_logbook" }

func ValidLogbookStatus(s string) bool {
	switch s {
	case LogbookStatusDraft, LogbookStatusSubmitted, LogbookStatusReturnedForEdits,
		LogbookStatusApproved, LogbookStatusRejected, LogbookStatusLocked:
		return true
	}
	return false
}

// TerminalLogbookStatus reports whether no trainee or supervisor action can
// move the logbook out of s. locked is absorbing; approved/rejected only
// admit the administrative lock.
func TerminalLogbookStatus(s string) bool {
	return s == LogbookStatusLocked
}
