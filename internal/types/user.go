package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrganizationID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	Organization        *Organization  `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrganizationID;references:ID" json:"organization,omitempty"`
	Email               string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	FirstName           string         `gorm:"column:first_name" json:"first_name"`
	LastName            string         `gorm:"column:last_name;not null" json:"last_name"`
	Password            string         `gorm:"column:password;not null" json:"-"`
	Role                string         `gorm:"column:role;not null;default:LEARNER" json:"role"`
	AvatarURL           string         `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	InvitedBy           *uuid.UUID     `gorm:"type:uuid" json:"invited_by,omitempty"`
	OnboardingCompleted bool           `gorm:"column:onboarding_completed;not null;default:false" json:"onboarding_completed"`
	IsActive            bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt           time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

type UserToken struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	AccessToken  string    `gorm:"column:access_token;not null" json:"-"`
	RefreshToken string    `gorm:"column:refresh_token;not null;index" json:"-"`
	ExpiresAt    time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserToken) TableName() string { return "user_token" }
