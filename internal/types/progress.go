package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Progress struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_progress_user_chapter,unique" json:"user_id"`
	User           *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	BookID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"book_id"`
	ChapterID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_progress_user_chapter,unique" json:"chapter_id"`
	Chapter        *Chapter       `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChapterID;references:ID" json:"chapter,omitempty"`
	Completed      bool           `gorm:"column:completed;not null;default:false" json:"completed"`
	CompletedAt    *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	TimeSpent      int            `gorm:"column:time_spent;not null;default:0" json:"time_spent"`
	Score          *int           `gorm:"column:score" json:"score,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Progress) TableName() string { return "progress" }
