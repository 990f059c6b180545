package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fieldline/comms-backend/internal/models"
	"gorm.io/gorm"
)

// ListFilter is the store-side query language for communications. It
// carries only predicates the database can evaluate; tag containment is
// filtered in memory by the inbox layer.
type ListFilter struct {
	// CompanyID scopes the query to one tenant. Always required.
	CompanyID string

	// OwnerID restricts to one member's personal mailbox when set.
	OwnerID *string
	// SharedOnly restricts to rows with no mailbox owner (company inbox).
	SharedOnly bool

	Category    models.Category
	CategoryNot models.Category
	Direction   models.Direction
	Status      models.Status
	StatusNot   models.Status

	Archived *bool

	// DeletedOnly selects only soft-deleted rows (trash/bin). When it is
	// false, deleted rows are excluded unless IncludeDeleted is set.
	DeletedOnly    bool
	IncludeDeleted bool

	// SnoozedOnly selects rows whose snooze is still pending.
	// ExcludeSnoozed removes such rows (inbox view).
	SnoozedOnly    bool
	ExcludeSnoozed bool

	// Search matches subject, from_address and from_name,
	// case-insensitive substring.
	Search string

	// Now anchors snooze comparisons; zero means time.Now().
	Now time.Time

	Limit  int
	Offset int
}

// CommunicationRepository defines the interface for communication data access
type CommunicationRepository interface {
	Create(ctx context.Context, comm *models.Communication) error
	GetByID(ctx context.Context, companyID, id string) (*models.Communication, error)
	GetByProviderMessageID(ctx context.Context, companyID, providerID string) (*models.Communication, error)
	List(ctx context.Context, filter ListFilter) ([]models.Communication, int64, error)
	MarkRead(ctx context.Context, companyID, id string) error
	MarkUnread(ctx context.Context, companyID, id string) error
	SetArchived(ctx context.Context, companyID, id string, archived bool) error
	Snooze(ctx context.Context, companyID, id string, until time.Time) error
	Unsnooze(ctx context.Context, companyID, id string) error
	AddTag(ctx context.Context, companyID, id, tag string) error
	RemoveTag(ctx context.Context, companyID, id, tag string) error
	SetCategory(ctx context.Context, companyID, id string, category models.Category) error
	SetDelivered(ctx context.Context, companyID, id string, at time.Time) error
	SoftDelete(ctx context.Context, companyID, id string) error
	Restore(ctx context.Context, companyID, id string) error
}

// communicationRepository implements CommunicationRepository using GORM
type communicationRepository struct {
	db *gorm.DB
}

// NewCommunicationRepository creates a new CommunicationRepository instance
func NewCommunicationRepository(db *gorm.DB) CommunicationRepository {
	return &communicationRepository{db: db}
}

// Create inserts a new communication row
func (r *communicationRepository) Create(ctx context.Context, comm *models.Communication) error {
	if comm.CompanyID == "" {
		return ErrInvalidInput
	}
	result := r.db.WithContext(ctx).Create(comm)
	if result.Error != nil {
		return fmt.Errorf("failed to create communication: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a communication by ID within a company scope
func (r *communicationRepository) GetByID(ctx context.Context, companyID, id string) (*models.Communication, error) {
	var comm models.Communication
	result := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&comm)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get communication: %w", result.Error)
	}
	return &comm, nil
}

// GetByProviderMessageID retrieves the communication carrying a provider
// message identifier within a company scope. Used by webhook ingestion
// to update the row a later lifecycle event refers to.
func (r *communicationRepository) GetByProviderMessageID(ctx context.Context, companyID, providerID string) (*models.Communication, error) {
	if providerID == "" {
		return nil, ErrInvalidInput
	}
	var comm models.Communication
	result := r.db.WithContext(ctx).
		Where("company_id = ? AND provider_message_id = ?", companyID, providerID).
		Order("created_at DESC").
		First(&comm)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get communication by provider message id: %w", result.Error)
	}
	return &comm, nil
}

// List retrieves a page of communications matching the filter, newest
// first, plus the exact total count for the same predicates.
func (r *communicationRepository) List(ctx context.Context, filter ListFilter) ([]models.Communication, int64, error) {
	if filter.CompanyID == "" {
		return nil, 0, ErrInvalidInput
	}

	base := r.applyFilter(r.db.WithContext(ctx).Model(&models.Communication{}), filter)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count communications: %w", err)
	}

	var comms []models.Communication
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.Communication{}), filter).
		Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if err := query.Find(&comms).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list communications: %w", err)
	}

	return comms, total, nil
}

// applyFilter translates a ListFilter into GORM predicates
func (r *communicationRepository) applyFilter(q *gorm.DB, f ListFilter) *gorm.DB {
	q = q.Where("company_id = ?", f.CompanyID)

	if f.OwnerID != nil {
		q = q.Where("mailbox_owner_id = ?", *f.OwnerID)
	}
	if f.SharedOnly {
		q = q.Where("mailbox_owner_id IS NULL")
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.CategoryNot != "" {
		q = q.Where("category <> ?", f.CategoryNot)
	}
	if f.Direction != "" {
		q = q.Where("direction = ?", f.Direction)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.StatusNot != "" {
		q = q.Where("status <> ?", f.StatusNot)
	}
	if f.Archived != nil {
		q = q.Where("is_archived = ?", *f.Archived)
	}

	switch {
	case f.DeletedOnly:
		q = q.Where("deleted_at IS NOT NULL")
	case !f.IncludeDeleted:
		q = q.Where("deleted_at IS NULL")
	}

	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}
	if f.SnoozedOnly {
		q = q.Where("snoozed_until IS NOT NULL AND snoozed_until > ?", now)
	}
	if f.ExcludeSnoozed {
		q = q.Where("snoozed_until IS NULL OR snoozed_until <= ?", now)
	}

	if f.Search != "" {
		pattern := "%" + strings.ToLower(escapeLike(f.Search)) + "%"
		// ESCAPE pins the escape character; SQLite has no default one
		q = q.Where(
			`LOWER(subject) LIKE ? ESCAPE '\' OR LOWER(from_address) LIKE ? ESCAPE '\' OR LOWER(from_name) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern,
		)
	}

	return q
}

// escapeLike escapes LIKE wildcards in user-provided search text
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// MarkRead stamps read_at on an unread communication
func (r *communicationRepository) MarkRead(ctx context.Context, companyID, id string) error {
	return r.updateFields(ctx, companyID, id, map[string]interface{}{"read_at": time.Now()})
}

// MarkUnread clears read_at
func (r *communicationRepository) MarkUnread(ctx context.Context, companyID, id string) error {
	return r.updateFields(ctx, companyID, id, map[string]interface{}{"read_at": nil})
}

// SetArchived flips the archived flag
func (r *communicationRepository) SetArchived(ctx context.Context, companyID, id string, archived bool) error {
	return r.updateFields(ctx, companyID, id, map[string]interface{}{"is_archived": archived})
}

// Snooze hides a communication from the inbox until the given time
func (r *communicationRepository) Snooze(ctx context.Context, companyID, id string, until time.Time) error {
	return r.updateFields(ctx, companyID, id, map[string]interface{}{"snoozed_until": until})
}

// Unsnooze clears the snooze timestamp
func (r *communicationRepository) Unsnooze(ctx context.Context, companyID, id string) error {
	return r.updateFields(ctx, companyID, id, map[string]interface{}{"snoozed_until": nil})
}

// SetCategory reassigns the communication's category
func (r *communicationRepository) SetCategory(ctx context.Context, companyID, id string, category models.Category) error {
	return r.updateFields(ctx, companyID, id, map[string]interface{}{"category": category})
}

// SetDelivered marks a communication as delivered at the given time
func (r *communicationRepository) SetDelivered(ctx context.Context, companyID, id string, at time.Time) error {
	return r.updateFields(ctx, companyID, id, map[string]interface{}{
		"status":       models.StatusDelivered,
		"delivered_at": at,
	})
}

// SoftDelete moves a communication to the trash
func (r *communicationRepository) SoftDelete(ctx context.Context, companyID, id string) error {
	return r.updateFields(ctx, companyID, id, map[string]interface{}{"deleted_at": time.Now()})
}

// Restore takes a communication out of the trash
func (r *communicationRepository) Restore(ctx context.Context, companyID, id string) error {
	return r.updateFields(ctx, companyID, id, map[string]interface{}{"deleted_at": nil})
}

// AddTag appends a tag to the communication's tag list. Read-modify-write
// on a single row, last write wins.
func (r *communicationRepository) AddTag(ctx context.Context, companyID, id, tag string) error {
	comm, err := r.GetByID(ctx, companyID, id)
	if err != nil {
		return err
	}
	if comm.Tags.Contains(tag) {
		return nil
	}
	comm.Tags = comm.Tags.Add(tag)
	return r.updateFields(ctx, companyID, id, map[string]interface{}{"tags": comm.Tags})
}

// RemoveTag removes a tag from the communication's tag list
func (r *communicationRepository) RemoveTag(ctx context.Context, companyID, id, tag string) error {
	comm, err := r.GetByID(ctx, companyID, id)
	if err != nil {
		return err
	}
	if !comm.Tags.Contains(tag) {
		return nil
	}
	comm.Tags = comm.Tags.Remove(tag)
	return r.updateFields(ctx, companyID, id, map[string]interface{}{"tags": comm.Tags})
}

// updateFields runs a single-row company-scoped update
func (r *communicationRepository) updateFields(ctx context.Context, companyID, id string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Communication{}).
		Where("company_id = ? AND id = ?", companyID, id).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update communication: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
