package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in_progress"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
)

type SupportTicket struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	Subject  string `gorm:"not null" json:"subject"`
	Body     string `gorm:"not null" json:"body"`
	Status   string `gorm:"not null;default:'open'" json:"status"`
	Priority string `gorm:"not null;default:'medium'" json:"priority"`

	Messages []*SupportTicketMessage `gorm:"foreignKey:TicketID;references:ID" json:"messages,omitempty"`

	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SupportTicket) TableName() string { return "support_ticket" }

func ValidTicketStatus(s string) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

type SupportTicketMessage struct {
	ID       uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TicketID uuid.UUID      `gorm:"type:uuid;not null;index" json:"ticket_id"`
	Ticket   *SupportTicket `gorm:"constraint:OnDelete:CASCADE;foreignKey:TicketID;references:ID" json:"ticket,omitempty"`
	AuthorID uuid.UUID      `gorm:"type:uuid;not null" json:"author_id"`
	Author   *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:AuthorID;references:ID" json:"author,omitempty"`
	Body     string         `gorm:"not null" json:"body"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SupportTicketMessage) TableName() string { return "support_ticket_message" }
