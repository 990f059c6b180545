package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommunicationType identifies the channel a communication arrived on
type CommunicationType string

const (
	TypeEmail     CommunicationType = "email"
	TypeSMS       CommunicationType = "sms"
	TypeCall      CommunicationType = "call"
	TypeVoicemail CommunicationType = "voicemail"
)

// Direction identifies whether a communication was received or sent
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Status tracks the delivery lifecycle of a communication
type Status string

const (
	StatusDraft     Status = "draft"
	StatusQueued    Status = "queued"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusReceived  Status = "received"
)

// Category routes shared-inbox communications to a team queue
type Category string

const (
	CategorySupport Category = "support"
	CategorySales   Category = "sales"
	CategoryBilling Category = "billing"
	CategoryGeneral Category = "general"
	CategorySpam    Category = "spam"
)

// Well-known tags used by folder views
const (
	TagStarred = "starred"
	TagSpam    = "spam"
)

// TagList is a set of free-form labels stored as a JSON text column.
// Stored as text rather than a native array so the same model works on
// Postgres and the SQLite test databases.
type TagList []string

// Value implements driver.Valuer
func (t TagList) Value() (driver.Value, error) {
	if len(t) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal([]string(t))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (t *TagList) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported tags column type %T", value)
	}

	if len(data) == 0 {
		*t = nil
		return nil
	}

	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	*t = tags
	return nil
}

// Contains reports whether the list holds the given tag
func (t TagList) Contains(tag string) bool {
	for _, v := range t {
		if v == tag {
			return true
		}
	}
	return false
}

// Add returns the list with the tag appended if not already present
func (t TagList) Add(tag string) TagList {
	if t.Contains(tag) {
		return t
	}
	return append(t, tag)
}

// Remove returns the list without the given tag
func (t TagList) Remove(tag string) TagList {
	result := make(TagList, 0, len(t))
	for _, v := range t {
		if v != tag {
			result = append(result, v)
		}
	}
	return result
}

// Communication is a single inbound or outbound message record (email,
// SMS, call, or voicemail) scoped to a company. Rows are never physically
// removed; DeletedAt marks them as trashed.
type Communication struct {
	ID             string  `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID      string  `gorm:"type:uuid;not null;index" json:"company_id"`
	MailboxOwnerID *string `gorm:"type:uuid;index" json:"mailbox_owner_id,omitempty"`

	Type      CommunicationType `gorm:"not null;size:16" json:"type"`
	Direction Direction         `gorm:"not null;size:16" json:"direction"`
	Status    Status            `gorm:"size:32" json:"status,omitempty"`
	Category  Category          `gorm:"size:32" json:"category,omitempty"`
	Tags      TagList           `gorm:"type:text" json:"tags,omitempty"`

	// ProviderMessageID is the provider-side message identifier. Later
	// lifecycle events for the same message update the stored row
	// instead of creating a duplicate.
	ProviderMessageID string `gorm:"size:64;index" json:"provider_message_id,omitempty"`

	Subject     string `json:"subject,omitempty"`
	Body        string `json:"body,omitempty"`
	BodyHTML    string `json:"body_html,omitempty"`
	FromAddress string `gorm:"size:512" json:"from_address,omitempty"`
	FromName    string `gorm:"size:255" json:"from_name,omitempty"`
	// ToAddress may hold a JSON-encoded array written by older ingest
	// paths; the inbox normalizer collapses it to a single address.
	ToAddress string `gorm:"size:1024" json:"to_address,omitempty"`

	IsArchived   bool       `gorm:"default:false" json:"is_archived"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
	SnoozedUntil *time.Time `json:"snoozed_until,omitempty"`
	DeletedAt    *time.Time `gorm:"index" json:"deleted_at,omitempty"`

	SentAt      *time.Time `json:"sent_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	OpenedAt    *time.Time `json:"opened_at,omitempty"`
	ClickedAt   *time.Time `json:"clicked_at,omitempty"`
	OpenCount   int        `gorm:"default:0" json:"open_count"`
	ClickCount  int        `gorm:"default:0" json:"click_count"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for Communication
func (Communication) TableName() string {
	return "communications"
}

// BeforeCreate assigns a UUID when none was provided
func (c *Communication) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IsRead reports whether the communication has been read
func (c *Communication) IsRead() bool {
	return c.ReadAt != nil
}

// IsPersonal reports whether the row belongs to a team member's personal
// mailbox rather than the shared company inbox
func (c *Communication) IsPersonal() bool {
	return c.MailboxOwnerID != nil
}
