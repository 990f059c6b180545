package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fieldline/comms-backend/internal/models"
	"gorm.io/gorm"
)

// MemberRepository defines the interface for team member data access
type MemberRepository interface {
	Create(ctx context.Context, member *models.TeamMember) error
	GetByID(ctx context.Context, companyID, id string) (*models.TeamMember, error)
	GetByEmail(ctx context.Context, email string) (*models.TeamMember, error)
	ListByCompany(ctx context.Context, companyID string) ([]models.TeamMember, error)
	Deactivate(ctx context.Context, companyID, id string) error
}

// memberRepository implements MemberRepository using GORM
type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new MemberRepository instance
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

// Create creates a new team member
func (r *memberRepository) Create(ctx context.Context, member *models.TeamMember) error {
	member.Email = strings.ToLower(strings.TrimSpace(member.Email))
	result := r.db.WithContext(ctx).Create(member)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create team member: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a team member by ID within a company scope
func (r *memberRepository) GetByID(ctx context.Context, companyID, id string) (*models.TeamMember, error) {
	var member models.TeamMember
	result := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&member)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get team member: %w", result.Error)
	}
	return &member, nil
}

// GetByEmail retrieves a team member by email address. Used by the SMTP
// intake to route inbound mail to the owning company.
func (r *memberRepository) GetByEmail(ctx context.Context, email string) (*models.TeamMember, error) {
	var member models.TeamMember
	result := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&member)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get team member by email: %w", result.Error)
	}
	return &member, nil
}

// ListByCompany retrieves all members of a company
func (r *memberRepository) ListByCompany(ctx context.Context, companyID string) ([]models.TeamMember, error) {
	var members []models.TeamMember
	result := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at ASC").
		Find(&members)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list team members: %w", result.Error)
	}
	return members, nil
}

// Deactivate disables a member's mailbox without removing the row
func (r *memberRepository) Deactivate(ctx context.Context, companyID, id string) error {
	result := r.db.WithContext(ctx).
		Model(&models.TeamMember{}).
		Where("company_id = ? AND id = ?", companyID, id).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate team member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
