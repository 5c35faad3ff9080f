package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleTrainee    = "trainee"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

type User struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email          string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string         `gorm:"not null" json:"-"`
	FullName       string         `gorm:"not null" json:"full_name"`
	Role           string         `gorm:"not null;default:'trainee'" json:"role"`
	AhpraNumber    string         `gorm:"column:ahpra_number" json:"ahpra_number,omitempty"`
	AvatarPath     string         `gorm:"column:avatar_path" json:"avatar_path,omitempty"`
	AvatarColorHex string         `gorm:"column:avatar_color_hex" json:"avatar_color_hex,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

func (u *User) IsTrainee() bool    { return u != nil && u.Role == RoleTrainee }
func (u *User) IsSupervisor() bool { return u != nil && u.Role == RoleSupervisor }
