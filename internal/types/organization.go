package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Organization struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name               string         `gorm:"column:name;not null" json:"name"`
	Slug               string         `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Industry           string         `gorm:"column:industry" json:"industry"`
	Website            string         `gorm:"column:website" json:"website,omitempty"`
	Description        string         `gorm:"column:description" json:"description,omitempty"`
	SubscriptionStatus string         `gorm:"column:subscription_status;not null;default:TRIAL" json:"subscription_status"`
	SubscriptionTier   string         `gorm:"column:subscription_tier;not null;default:STARTER" json:"subscription_tier"`
	MaxSeats           int            `gorm:"column:max_seats;not null;default:5" json:"max_seats"`
	TrialEndsAt        *time.Time     `gorm:"column:trial_ends_at" json:"trial_ends_at,omitempty"`
	StripeCustomerID   string         `gorm:"column:stripe_customer_id;index" json:"-"`
	CreatedAt          time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Organization) TableName() string { return "organization" }
