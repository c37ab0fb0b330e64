package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Chapter struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookID uuid.UUID `gorm:"type:uuid;not null;index" json:"book_id"`
	Book   *Book     `gorm:"constraint:OnDelete:CASCADE;foreignKey:BookID;references:ID" json:"book,omitempty"`
	Title  string    `gorm:"column:title;not null" json:"title"`
	Emoji  string    `gorm:"column:emoji" json:"emoji,omitempty"`
	Order  int       `gorm:"column:display_order;not null;default:0" json:"order"`
	// DefaultExecutionMode is always SHARED or ISOLATED; inheritance terminates
	// at the chapter.
	DefaultExecutionMode string         `gorm:"column:default_execution_mode;not null;default:SHARED" json:"default_execution_mode"`
	Packages             datatypes.JSON `gorm:"column:packages;type:jsonb" json:"packages"`
	EstimatedMinutes     int            `gorm:"column:estimated_minutes;not null;default:0" json:"estimated_minutes"`
	Version              int            `gorm:"column:version;not null;default:1" json:"version"`
	Sections             []*Section     `gorm:"foreignKey:ChapterID;references:ID" json:"sections,omitempty"`
	CreatedAt            time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Chapter) TableName() string { return "chapter" }

type Section struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChapterID uuid.UUID `gorm:"type:uuid;not null;index" json:"chapter_id"`
	Chapter   *Chapter  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChapterID;references:ID" json:"chapter,omitempty"`
	// Type is fixed at creation; markdown sections never execute.
	Type          string         `gorm:"column:type;not null" json:"type"`
	Title         string         `gorm:"column:title" json:"title,omitempty"`
	Content       string         `gorm:"column:content;type:text" json:"content"`
	ExecutionMode string         `gorm:"column:execution_mode;not null;default:INHERIT" json:"execution_mode"`
	Order         int            `gorm:"column:display_order;not null;default:0" json:"order"`
	DependsOn     datatypes.JSON `gorm:"column:depends_on;type:jsonb" json:"depends_on,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Section) TableName() string { return "section" }
