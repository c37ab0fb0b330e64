package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Invitation struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	Organization   *Organization  `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrganizationID;references:ID" json:"organization,omitempty"`
	Email          string         `gorm:"column:email;not null;index" json:"email"`
	Role           string         `gorm:"column:role;not null;default:LEARNER" json:"role"`
	Token          string         `gorm:"column:token;not null;uniqueIndex" json:"-"`
	InvitedBy      uuid.UUID      `gorm:"type:uuid;not null" json:"invited_by"`
	ExpiresAt      time.Time      `gorm:"column:expires_at;not null" json:"expires_at"`
	AcceptedAt     *time.Time     `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Invitation) TableName() string { return "invitation" }
