package inbox

import (
	"context"
	"errors"
	"testing"

	"github.com/fieldline/comms-backend/internal/models"
	"github.com/fieldline/comms-backend/internal/repository"
	"github.com/fieldline/comms-backend/internal/requestcache"
	"github.com/fieldline/comms-backend/tests/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// InboxServiceTestSuite covers degradation and memoization behavior
// with mocked repositories.
type InboxServiceTestSuite struct {
	suite.Suite
	comms   *mocks.MockCommunicationRepository
	members *mocks.MockMemberRepository
	service *Service
}

// SetupTest runs before each test
func (s *InboxServiceTestSuite) SetupTest() {
	s.comms = new(mocks.MockCommunicationRepository)
	s.members = new(mocks.MockMemberRepository)
	s.service = NewService(s.comms, s.members, nil)
}

// TestInboxServiceTestSuite runs the test suite
func TestInboxServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InboxServiceTestSuite))
}

func (s *InboxServiceTestSuite) activeMember() *models.TeamMember {
	return &models.TeamMember{ID: "member-1", CompanyID: "company-1", Email: "a@x.com", IsActive: true}
}

func (s *InboxServiceTestSuite) TestResolve_StoreErrorDegradesToEmpty() {
	s.members.On("GetByID", mock.Anything, "company-1", "member-1").Return(s.activeMember(), nil)
	s.comms.On("List", mock.Anything, mock.Anything).
		Return(nil, int64(0), errors.New("connection refused"))

	res := s.service.Resolve(context.Background(), Request{
		CompanyID: "company-1",
		MemberID:  "member-1",
	})

	assert.NotNil(s.T(), res.Communications)
	assert.Empty(s.T(), res.Communications)
	assert.Equal(s.T(), int64(0), res.Total)
	assert.False(s.T(), res.HasMore)
}

func (s *InboxServiceTestSuite) TestResolve_EmptyCompanyShortCircuits() {
	res := s.service.Resolve(context.Background(), Request{MemberID: "member-1"})

	assert.Empty(s.T(), res.Communications)
	s.comms.AssertNotCalled(s.T(), "List", mock.Anything, mock.Anything)
	s.members.AssertNotCalled(s.T(), "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func (s *InboxServiceTestSuite) TestResolve_PersonalWithoutMemberShortCircuits() {
	res := s.service.Resolve(context.Background(), Request{CompanyID: "company-1"})

	assert.Empty(s.T(), res.Communications)
	s.comms.AssertNotCalled(s.T(), "List", mock.Anything, mock.Anything)
}

func (s *InboxServiceTestSuite) TestResolve_UnknownMemberDegradesToEmpty() {
	s.members.On("GetByID", mock.Anything, "company-1", "ghost").
		Return(nil, repository.ErrNotFound)

	res := s.service.Resolve(context.Background(), Request{
		CompanyID: "company-1",
		MemberID:  "ghost",
	})

	assert.Empty(s.T(), res.Communications)
	s.comms.AssertNotCalled(s.T(), "List", mock.Anything, mock.Anything)
}

func (s *InboxServiceTestSuite) TestResolve_InactiveMemberDegradesToEmpty() {
	inactive := s.activeMember()
	inactive.IsActive = false
	s.members.On("GetByID", mock.Anything, "company-1", "member-1").Return(inactive, nil)

	res := s.service.Resolve(context.Background(), Request{
		CompanyID: "company-1",
		MemberID:  "member-1",
	})

	assert.Empty(s.T(), res.Communications)
	s.comms.AssertNotCalled(s.T(), "List", mock.Anything, mock.Anything)
}

func (s *InboxServiceTestSuite) TestResolve_CompanyInboxSkipsMemberLookup() {
	s.comms.On("List", mock.Anything, mock.Anything).
		Return([]models.Communication{{ID: "c1"}}, int64(1), nil)

	res := s.service.Resolve(context.Background(), Request{
		CompanyID: "company-1",
		InboxType: InboxTypeCompany,
	})

	assert.Len(s.T(), res.Communications, 1)
	s.members.AssertNotCalled(s.T(), "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func (s *InboxServiceTestSuite) TestResolve_DefaultsApplied() {
	s.members.On("GetByID", mock.Anything, "company-1", "member-1").Return(s.activeMember(), nil)
	s.comms.On("List", mock.Anything, mock.MatchedBy(func(f repository.ListFilter) bool {
		return f.Limit == DefaultLimit && f.Offset == 0 && f.OwnerID != nil && *f.OwnerID == "member-1"
	})).Return([]models.Communication{}, int64(0), nil)

	res := s.service.Resolve(context.Background(), Request{
		CompanyID: "company-1",
		MemberID:  "member-1",
		Offset:    -3,
	})

	assert.Equal(s.T(), DefaultLimit, res.Limit)
	assert.Equal(s.T(), 0, res.Offset)
	s.comms.AssertExpectations(s.T())
}

func (s *InboxServiceTestSuite) TestResolve_LimitClamped() {
	s.comms.On("List", mock.Anything, mock.MatchedBy(func(f repository.ListFilter) bool {
		return f.Limit == MaxLimit
	})).Return([]models.Communication{}, int64(0), nil)

	res := s.service.Resolve(context.Background(), Request{
		CompanyID: "company-1",
		InboxType: InboxTypeCompany,
		Limit:     10000,
	})

	assert.Equal(s.T(), MaxLimit, res.Limit)
	s.comms.AssertExpectations(s.T())
}

func (s *InboxServiceTestSuite) TestResolve_MemoizedWithinRequest() {
	s.comms.On("List", mock.Anything, mock.Anything).
		Return([]models.Communication{{ID: "c1"}}, int64(1), nil).Once()

	ctx := requestcache.NewContext(context.Background(), requestcache.New())
	req := Request{CompanyID: "company-1", InboxType: InboxTypeCompany}

	first := s.service.Resolve(ctx, req)
	second := s.service.Resolve(ctx, req)

	assert.Equal(s.T(), first, second)
	s.comms.AssertNumberOfCalls(s.T(), "List", 1)
}

func (s *InboxServiceTestSuite) TestResolve_DistinctRequestsNotShared() {
	s.comms.On("List", mock.Anything, mock.Anything).
		Return([]models.Communication{}, int64(0), nil)

	ctx := requestcache.NewContext(context.Background(), requestcache.New())
	s.service.Resolve(ctx, Request{CompanyID: "company-1", InboxType: InboxTypeCompany, Folder: FolderInbox})
	s.service.Resolve(ctx, Request{CompanyID: "company-1", InboxType: InboxTypeCompany, Folder: FolderSent})

	s.comms.AssertNumberOfCalls(s.T(), "List", 2)
}

func (s *InboxServiceTestSuite) TestResolve_NoCacheContextStillWorks() {
	s.comms.On("List", mock.Anything, mock.Anything).
		Return([]models.Communication{{ID: "c1"}}, int64(1), nil)

	res := s.service.Resolve(context.Background(), Request{
		CompanyID: "company-1",
		InboxType: InboxTypeCompany,
	})

	assert.Len(s.T(), res.Communications, 1)
}
