package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is the tenant root. Every communication and team member is
// scoped to exactly one company.
type Company struct {
	ID   string `gorm:"type:uuid;primaryKey" json:"id"`
	Name string `gorm:"not null;size:255" json:"name"`
	// IntakeEmail is the shared company mailbox address. Inbound mail to
	// this address lands in the shared inbox (no mailbox owner).
	IntakeEmail *string    `gorm:"size:254;uniqueIndex" json:"intake_email,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   *time.Time `gorm:"index" json:"deleted_at,omitempty"`

	Members []TeamMember `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

// TableName returns the table name for Company
func (Company) TableName() string {
	return "companies"
}

// BeforeCreate assigns a UUID when none was provided
func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
