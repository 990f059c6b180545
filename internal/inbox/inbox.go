// Package inbox implements the communication inbox resolution pipeline:
// folder semantics are compiled into store-side predicates where the
// database can evaluate them, tag-based folders are filtered in memory,
// and result rows are normalized into a stable record shape.
package inbox

import (
	"fmt"

	apperrors "github.com/fieldline/comms-backend/internal/errors"
	"github.com/fieldline/comms-backend/internal/models"
)

// InboxType selects between a member's personal mailbox and the shared
// company mailbox.
type InboxType string

const (
	InboxTypePersonal InboxType = "personal"
	InboxTypeCompany  InboxType = "company"
)

// Folder is a named, mutually exclusive filter view over communications.
// It is not a persisted field; every folder is computed from row state.
type Folder string

const (
	FolderNone    Folder = ""
	FolderInbox   Folder = "inbox"
	FolderSent    Folder = "sent"
	FolderSpam    Folder = "spam"
	FolderStarred Folder = "starred"
	FolderArchive Folder = "archive"
	FolderDrafts  Folder = "drafts"
	FolderSnoozed Folder = "snoozed"
	FolderTrash   Folder = "trash"
	FolderBin     Folder = "bin"
	FolderAll     Folder = "all"
)

// Pagination bounds
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Request describes one inbox resolution. JSON tags double as the
// serialization used for request-scoped memoization keys.
type Request struct {
	CompanyID string          `json:"company_id"`
	MemberID  string          `json:"member_id,omitempty"`
	InboxType InboxType       `json:"inbox_type"`
	Folder    Folder          `json:"folder,omitempty"`
	Category  models.Category `json:"category,omitempty"`
	Search    string          `json:"search,omitempty"`
	Limit     int             `json:"limit"`
	Offset    int             `json:"offset"`
}

// Result is the resolved page of communications
type Result struct {
	Communications []models.Communication `json:"communications"`
	Total          int64                  `json:"total"`
	HasMore        bool                   `json:"has_more"`
	Limit          int                    `json:"limit"`
	Offset         int                    `json:"offset"`
}

// withDefaults fills unset request fields with their defaults
func (r Request) withDefaults() Request {
	if r.InboxType == "" {
		r.InboxType = InboxTypePersonal
	}
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
	return r
}

// ParseInboxType parses an inbox type query value; empty means personal
func ParseInboxType(s string) (InboxType, error) {
	switch InboxType(s) {
	case "", InboxTypePersonal:
		return InboxTypePersonal, nil
	case InboxTypeCompany:
		return InboxTypeCompany, nil
	default:
		return "", fmt.Errorf("%w: unknown inbox type %q", apperrors.ErrInvalidInput, s)
	}
}

// ParseFolder parses a folder query value; empty means no folder filter
func ParseFolder(s string) (Folder, error) {
	switch f := Folder(s); f {
	case FolderNone, FolderInbox, FolderSent, FolderSpam, FolderStarred,
		FolderArchive, FolderDrafts, FolderSnoozed, FolderTrash, FolderBin, FolderAll:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown folder %q", apperrors.ErrInvalidInput, s)
	}
}

// ParseCategory parses a category query value; empty means no category filter
func ParseCategory(s string) (models.Category, error) {
	switch c := models.Category(s); c {
	case "", models.CategorySupport, models.CategorySales, models.CategoryBilling,
		models.CategoryGeneral, models.CategorySpam:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown category %q", apperrors.ErrInvalidInput, s)
	}
}
