package mocks

import (
	"context"
	"time"

	"github.com/fieldline/comms-backend/internal/models"
	"github.com/fieldline/comms-backend/internal/repository"
	"github.com/stretchr/testify/mock"
)

// MockCommunicationRepository implements repository.CommunicationRepository
type MockCommunicationRepository struct {
	mock.Mock
}

// Create creates a new communication
func (m *MockCommunicationRepository) Create(ctx context.Context, comm *models.Communication) error {
	args := m.Called(ctx, comm)
	return args.Error(0)
}

// GetByID retrieves a communication by ID
func (m *MockCommunicationRepository) GetByID(ctx context.Context, companyID, id string) (*models.Communication, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Communication), args.Error(1)
}

// GetByProviderMessageID retrieves a communication by provider message ID
func (m *MockCommunicationRepository) GetByProviderMessageID(ctx context.Context, companyID, providerID string) (*models.Communication, error) {
	args := m.Called(ctx, companyID, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Communication), args.Error(1)
}

// List retrieves communications matching a filter
func (m *MockCommunicationRepository) List(ctx context.Context, filter repository.ListFilter) ([]models.Communication, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Communication), args.Get(1).(int64), args.Error(2)
}

// MarkRead stamps read_at
func (m *MockCommunicationRepository) MarkRead(ctx context.Context, companyID, id string) error {
	args := m.Called(ctx, companyID, id)
	return args.Error(0)
}

// MarkUnread clears read_at
func (m *MockCommunicationRepository) MarkUnread(ctx context.Context, companyID, id string) error {
	args := m.Called(ctx, companyID, id)
	return args.Error(0)
}

// SetArchived flips the archived flag
func (m *MockCommunicationRepository) SetArchived(ctx context.Context, companyID, id string, archived bool) error {
	args := m.Called(ctx, companyID, id, archived)
	return args.Error(0)
}

// Snooze hides a communication until the given time
func (m *MockCommunicationRepository) Snooze(ctx context.Context, companyID, id string, until time.Time) error {
	args := m.Called(ctx, companyID, id, until)
	return args.Error(0)
}

// Unsnooze clears the snooze timestamp
func (m *MockCommunicationRepository) Unsnooze(ctx context.Context, companyID, id string) error {
	args := m.Called(ctx, companyID, id)
	return args.Error(0)
}

// AddTag appends a tag
func (m *MockCommunicationRepository) AddTag(ctx context.Context, companyID, id, tag string) error {
	args := m.Called(ctx, companyID, id, tag)
	return args.Error(0)
}

// RemoveTag removes a tag
func (m *MockCommunicationRepository) RemoveTag(ctx context.Context, companyID, id, tag string) error {
	args := m.Called(ctx, companyID, id, tag)
	return args.Error(0)
}

// SetCategory reassigns the category
func (m *MockCommunicationRepository) SetCategory(ctx context.Context, companyID, id string, category models.Category) error {
	args := m.Called(ctx, companyID, id, category)
	return args.Error(0)
}

// SetDelivered marks a communication as delivered
func (m *MockCommunicationRepository) SetDelivered(ctx context.Context, companyID, id string, at time.Time) error {
	args := m.Called(ctx, companyID, id, at)
	return args.Error(0)
}

// SoftDelete moves a communication to the trash
func (m *MockCommunicationRepository) SoftDelete(ctx context.Context, companyID, id string) error {
	args := m.Called(ctx, companyID, id)
	return args.Error(0)
}

// Restore takes a communication out of the trash
func (m *MockCommunicationRepository) Restore(ctx context.Context, companyID, id string) error {
	args := m.Called(ctx, companyID, id)
	return args.Error(0)
}

// MockCompanyRepository implements repository.CompanyRepository
type MockCompanyRepository struct {
	mock.Mock
}

// Create creates a new company
func (m *MockCompanyRepository) Create(ctx context.Context, company *models.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

// GetByID retrieves a company by ID
func (m *MockCompanyRepository) GetByID(ctx context.Context, id string) (*models.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Company), args.Error(1)
}

// GetByIntakeEmail retrieves a company by its shared intake address
func (m *MockCompanyRepository) GetByIntakeEmail(ctx context.Context, email string) (*models.Company, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Company), args.Error(1)
}

// List retrieves all active companies
func (m *MockCompanyRepository) List(ctx context.Context) ([]models.Company, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Company), args.Error(1)
}

// Delete soft-deletes a company
func (m *MockCompanyRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMemberRepository implements repository.MemberRepository
type MockMemberRepository struct {
	mock.Mock
}

// Create creates a new team member
func (m *MockMemberRepository) Create(ctx context.Context, member *models.TeamMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

// GetByID retrieves a team member by ID
func (m *MockMemberRepository) GetByID(ctx context.Context, companyID, id string) (*models.TeamMember, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamMember), args.Error(1)
}

// GetByEmail retrieves a team member by email address
func (m *MockMemberRepository) GetByEmail(ctx context.Context, email string) (*models.TeamMember, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamMember), args.Error(1)
}

// ListByCompany retrieves all members of a company
func (m *MockMemberRepository) ListByCompany(ctx context.Context, companyID string) ([]models.TeamMember, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TeamMember), args.Error(1)
}

// Deactivate disables a member's mailbox
func (m *MockMemberRepository) Deactivate(ctx context.Context, companyID, id string) error {
	args := m.Called(ctx, companyID, id)
	return args.Error(0)
}
