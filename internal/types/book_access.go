package types

import (
	"time"

	"github.com/google/uuid"
)

// BookAccess grants a learner explicit access to a published book. Admins and
// instructors see every published book in their org without rows here.
type BookAccess struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrganizationID uuid.UUID     `gorm:"type:uuid;not null;index" json:"organization_id"`
	Organization   *Organization `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrganizationID;references:ID" json:"organization,omitempty"`
	BookID         uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_book_access_book_user" json:"book_id"`
	Book           *Book         `gorm:"constraint:OnDelete:CASCADE;foreignKey:BookID;references:ID" json:"book,omitempty"`
	UserID         uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_book_access_book_user" json:"user_id"`
	User           *User         `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	GrantedBy      uuid.UUID     `gorm:"type:uuid;not null" json:"granted_by"`
	CreatedAt      time.Time     `gorm:"not null;default:now()" json:"created_at"`
}

func (BookAccess) TableName() string { return "book_access" }
