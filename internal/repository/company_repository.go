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

// CompanyRepository defines the interface for company (tenant) data access
type CompanyRepository interface {
	Create(ctx context.Context, company *models.Company) error
	GetByID(ctx context.Context, id string) (*models.Company, error)
	GetByIntakeEmail(ctx context.Context, email string) (*models.Company, error)
	List(ctx context.Context) ([]models.Company, error)
	Delete(ctx context.Context, id string) error
}

// companyRepository implements CompanyRepository using GORM
type companyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new CompanyRepository instance
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

// Create creates a new company
func (r *companyRepository) Create(ctx context.Context, company *models.Company) error {
	if company.IntakeEmail != nil {
		normalized := strings.ToLower(strings.TrimSpace(*company.IntakeEmail))
		company.IntakeEmail = &normalized
	}
	result := r.db.WithContext(ctx).Create(company)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create company: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a company by ID, excluding soft-deleted tenants
func (r *companyRepository) GetByID(ctx context.Context, id string) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&company)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", result.Error)
	}
	return &company, nil
}

// GetByIntakeEmail retrieves the company whose shared mailbox owns the
// given address. Used by the SMTP intake as the fallback route when no
// team member matches the recipient.
func (r *companyRepository) GetByIntakeEmail(ctx context.Context, email string) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).
		Where("intake_email = ? AND deleted_at IS NULL", strings.ToLower(strings.TrimSpace(email))).
		First(&company)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get company by intake email: %w", result.Error)
	}
	return &company, nil
}

// List retrieves all active companies
func (r *companyRepository) List(ctx context.Context) ([]models.Company, error) {
	var companies []models.Company
	result := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").
		Order("created_at DESC").
		Find(&companies)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list companies: %w", result.Error)
	}
	return companies, nil
}

// Delete soft-deletes a company
func (r *companyRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("deleted_at", time.Now())
	if result.Error != nil {
		return fmt.Errorf("failed to delete company: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
