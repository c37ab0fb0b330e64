package types

import (
	"time"

	"github.com/google/uuid"
)

// CodeExecution is one telemetry row per in-browser run. ContextKey is the
// interpreter-instance key the resolver derived (chapter id for SHARED,
// section id for ISOLATED) so admin views can group runs by interpreter.
type CodeExecution struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User            *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	OrganizationID  uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	ChapterID       uuid.UUID `gorm:"type:uuid;not null;index" json:"chapter_id"`
	Chapter         *Chapter  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChapterID;references:ID" json:"chapter,omitempty"`
	SectionID       uuid.UUID `gorm:"type:uuid;not null;index" json:"section_id"`
	CodeContent     string    `gorm:"column:code_content;type:text;not null" json:"code_content"`
	ExecutionResult string    `gorm:"column:execution_result;type:text" json:"execution_result,omitempty"`
	ExecutionStatus string    `gorm:"column:execution_status;not null" json:"execution_status"`
	ErrorMessage    string    `gorm:"column:error_message;type:text" json:"error_message,omitempty"`
	ExecutionMode   string    `gorm:"column:execution_mode;not null" json:"execution_mode"`
	ContextKey      string    `gorm:"column:context_key;not null;index" json:"context_key"`
	SessionID       string    `gorm:"column:session_id;index" json:"session_id,omitempty"`
	ExecutedAt      time.Time `gorm:"column:executed_at;not null;default:now();index" json:"executed_at"`
}

func (CodeExecution) TableName() string { return "code_execution" }
