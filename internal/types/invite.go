package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
	InviteStatusExpired  = "expired"
)

// SupervisionInvite links a supervisor to a prospective trainee by email.
// Pending invites past their expiry are advanced to expired by the
// advance_expirations sweep.
type SupervisionInvite struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SupervisorID uuid.UUID `gorm:"type:uuid;not null;index" json:"supervisor_id"`
	Supervisor   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:SupervisorID;references:ID" json:"supervisor,omitempty"`

	TraineeEmail string     `gorm:"not null;index" json:"trainee_email"`
	TraineeID    *uuid.UUID `gorm:"type:uuid;index" json:"trainee_id,omitempty"`
	Status       string     `gorm:"not null;default:'pending'" json:"status"`
	Token        string     `gorm:"uniqueIndex;not null" json:"-"`
	Message      string     `json:"message,omitempty"`
	ExpiresAt    time.Time  `gorm:"not null;index" json:"expires_at"`
	AcceptedAt   *time.Time `json:"accepted_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SupervisionInvite) TableName() string { return "supervision_invite" }
