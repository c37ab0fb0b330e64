package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type BillingEvent struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	Organization   *Organization  `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrganizationID;references:ID" json:"organization,omitempty"`
	EventType      string         `gorm:"column:event_type;not null;index" json:"event_type"`
	Metadata       datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (BillingEvent) TableName() string { return "billing_event" }
