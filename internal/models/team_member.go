package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeamMember is a user who can own a personal mailbox within a company.
// Communications with MailboxOwnerID pointing at a member show up in that
// member's personal inbox; rows with a null owner belong to the shared
// company inbox.
type TeamMember struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID   string    `gorm:"type:uuid;not null;uniqueIndex:idx_members_company_email" json:"company_id"`
	Email       string    `gorm:"not null;size:255;uniqueIndex:idx_members_company_email" json:"email"`
	DisplayName string    `gorm:"size:255" json:"display_name,omitempty"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Company Company `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for TeamMember
func (TeamMember) TableName() string {
	return "team_members"
}

// BeforeCreate assigns a UUID when none was provided
func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
