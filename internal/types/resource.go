package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrgResource domains.
var (
	ResourceTypes      = []string{"link", "document", "video", "tool"}
	ResourceCategories = []string{"learning", "reference", "tools", "documentation", "external"}
)

func ValidResourceType(v string) bool     { return contains(ResourceTypes, v) }
func ValidResourceCategory(v string) bool { return contains(ResourceCategories, v) }

type OrgResource struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	Organization   *Organization  `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrganizationID;references:ID" json:"organization,omitempty"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	Description    string         `gorm:"column:description" json:"description,omitempty"`
	URL            string         `gorm:"column:url;not null" json:"url"`
	ResourceType   string         `gorm:"column:resource_type;not null;default:link" json:"resource_type"`
	Category       string         `gorm:"column:category;not null;default:learning" json:"category"`
	Icon           string         `gorm:"column:icon" json:"icon,omitempty"`
	OrderIndex     int            `gorm:"column:order_index;not null;default:0" json:"order_index"`
	IsActive       bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedBy      uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (OrgResource) TableName() string { return "org_resource" }
