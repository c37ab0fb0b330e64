package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Book struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	Organization   *Organization  `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrganizationID;references:ID" json:"organization,omitempty"`
	Slug           string         `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	Description    string         `gorm:"column:description" json:"description,omitempty"`
	Difficulty     string         `gorm:"column:difficulty;not null;default:BEGINNER" json:"difficulty"`
	Category       string         `gorm:"column:category;not null;default:GENERAL" json:"category"`
	EstimatedHours int            `gorm:"column:estimated_hours;not null;default:1" json:"estimated_hours"`
	Tags           datatypes.JSON `gorm:"column:tags;type:jsonb" json:"tags"`
	CreatedBy      uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`
	IsPublished    bool           `gorm:"column:is_published;not null;default:false" json:"is_published"`
	Order          int            `gorm:"column:display_order;not null;default:0" json:"order"`
	// Version is the optimistic-concurrency token: tree saves CAS on it and a
	// stale base version surfaces as a conflict instead of a silent overwrite.
	Version   int            `gorm:"column:version;not null;default:1" json:"version"`
	Chapters  []*Chapter     `gorm:"foreignKey:BookID;references:ID" json:"chapters,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Book) TableName() string { return "book" }
