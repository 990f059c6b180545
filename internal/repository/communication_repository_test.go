package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fieldline/comms-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// CommunicationRepositoryTestSuite defines the test suite for the
// communication repository.
type CommunicationRepositoryTestSuite struct {
	suite.Suite
	db      *gorm.DB
	repo    CommunicationRepository
	company *models.Company
	other   *models.Company
}

// SetupSuite runs once before all tests
func (s *CommunicationRepositoryTestSuite) SetupSuite() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	err = db.AutoMigrate(&models.Company{}, &models.TeamMember{}, &models.Communication{})
	require.NoError(s.T(), err)

	s.db = db
	s.repo = NewCommunicationRepository(db)
}

// SetupTest runs before each test
func (s *CommunicationRepositoryTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM communications")
	s.db.Exec("DELETE FROM companies")

	s.company = &models.Company{Name: "Test Co"}
	require.NoError(s.T(), s.db.Create(s.company).Error)
	s.other = &models.Company{Name: "Other Co"}
	require.NoError(s.T(), s.db.Create(s.other).Error)
}

// TestCommunicationRepositoryTestSuite runs the test suite
func TestCommunicationRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(CommunicationRepositoryTestSuite))
}

func (s *CommunicationRepositoryTestSuite) seed(mut func(*models.Communication)) models.Communication {
	c := models.Communication{
		CompanyID: s.company.ID,
		Type:      models.TypeEmail,
		Direction: models.DirectionInbound,
		Status:    models.StatusReceived,
		Category:  models.CategoryGeneral,
	}
	if mut != nil {
		mut(&c)
	}
	require.NoError(s.T(), s.db.Create(&c).Error)
	return c
}

func (s *CommunicationRepositoryTestSuite) TestCreate_Success() {
	comm := &models.Communication{
		CompanyID:   s.company.ID,
		Type:        models.TypeEmail,
		Direction:   models.DirectionInbound,
		Status:      models.StatusReceived,
		Category:    models.CategorySupport,
		Subject:     "Leaky faucet",
		FromAddress: "customer@example.com",
	}

	err := s.repo.Create(context.Background(), comm)

	require.NoError(s.T(), err)
	assert.NotEmpty(s.T(), comm.ID)
	assert.False(s.T(), comm.CreatedAt.IsZero())
}

func (s *CommunicationRepositoryTestSuite) TestCreate_MissingCompany() {
	err := s.repo.Create(context.Background(), &models.Communication{
		Type:      models.TypeEmail,
		Direction: models.DirectionInbound,
	})

	assert.ErrorIs(s.T(), err, ErrInvalidInput)
}

func (s *CommunicationRepositoryTestSuite) TestGetByID_ScopedToCompany() {
	comm := s.seed(nil)

	got, err := s.repo.GetByID(context.Background(), s.company.ID, comm.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), comm.ID, got.ID)

	_, err = s.repo.GetByID(context.Background(), s.other.ID, comm.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *CommunicationRepositoryTestSuite) TestList_RequiresCompany() {
	_, _, err := s.repo.List(context.Background(), ListFilter{})
	assert.ErrorIs(s.T(), err, ErrInvalidInput)
}

func (s *CommunicationRepositoryTestSuite) TestList_ExcludesDeletedByDefault() {
	now := time.Now()
	s.seed(nil)
	s.seed(func(c *models.Communication) { c.DeletedAt = &now })

	comms, total, err := s.repo.List(context.Background(), ListFilter{CompanyID: s.company.ID})

	require.NoError(s.T(), err)
	assert.Len(s.T(), comms, 1)
	assert.Equal(s.T(), int64(1), total)
}

func (s *CommunicationRepositoryTestSuite) TestList_DeletedOnly() {
	now := time.Now()
	s.seed(nil)
	deleted := s.seed(func(c *models.Communication) { c.DeletedAt = &now })

	comms, total, err := s.repo.List(context.Background(), ListFilter{
		CompanyID:   s.company.ID,
		DeletedOnly: true,
	})

	require.NoError(s.T(), err)
	require.Len(s.T(), comms, 1)
	assert.Equal(s.T(), deleted.ID, comms[0].ID)
	assert.Equal(s.T(), int64(1), total)
}

func (s *CommunicationRepositoryTestSuite) TestList_IncludeDeleted() {
	now := time.Now()
	s.seed(nil)
	s.seed(func(c *models.Communication) { c.DeletedAt = &now })

	_, total, err := s.repo.List(context.Background(), ListFilter{
		CompanyID:      s.company.ID,
		IncludeDeleted: true,
	})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), total)
}

func (s *CommunicationRepositoryTestSuite) TestList_OwnerScoping() {
	owner := "member-1"
	mine := s.seed(func(c *models.Communication) { c.MailboxOwnerID = &owner })
	shared := s.seed(nil)

	comms, _, err := s.repo.List(context.Background(), ListFilter{
		CompanyID: s.company.ID,
		OwnerID:   &owner,
	})
	require.NoError(s.T(), err)
	require.Len(s.T(), comms, 1)
	assert.Equal(s.T(), mine.ID, comms[0].ID)

	comms, _, err = s.repo.List(context.Background(), ListFilter{
		CompanyID:  s.company.ID,
		SharedOnly: true,
	})
	require.NoError(s.T(), err)
	require.Len(s.T(), comms, 1)
	assert.Equal(s.T(), shared.ID, comms[0].ID)
}

func (s *CommunicationRepositoryTestSuite) TestList_NegatedPredicates() {
	s.seed(func(c *models.Communication) { c.Category = models.CategorySpam })
	s.seed(func(c *models.Communication) {
		c.Direction = models.DirectionOutbound
		c.Status = models.StatusDraft
	})
	keep := s.seed(nil)

	comms, _, err := s.repo.List(context.Background(), ListFilter{
		CompanyID:   s.company.ID,
		CategoryNot: models.CategorySpam,
		StatusNot:   models.StatusDraft,
	})

	require.NoError(s.T(), err)
	require.Len(s.T(), comms, 1)
	assert.Equal(s.T(), keep.ID, comms[0].ID)
}

func (s *CommunicationRepositoryTestSuite) TestList_SnoozePredicates() {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)
	pending := s.seed(func(c *models.Communication) { c.SnoozedUntil = &future })
	expired := s.seed(func(c *models.Communication) { c.SnoozedUntil = &past })
	plain := s.seed(nil)

	comms, _, err := s.repo.List(context.Background(), ListFilter{
		CompanyID:   s.company.ID,
		SnoozedOnly: true,
		Now:         now,
	})
	require.NoError(s.T(), err)
	require.Len(s.T(), comms, 1)
	assert.Equal(s.T(), pending.ID, comms[0].ID)

	comms, _, err = s.repo.List(context.Background(), ListFilter{
		CompanyID:      s.company.ID,
		ExcludeSnoozed: true,
		Now:            now,
	})
	require.NoError(s.T(), err)
	ids := []string{comms[0].ID, comms[1].ID}
	assert.ElementsMatch(s.T(), []string{expired.ID, plain.ID}, ids)
}

func (s *CommunicationRepositoryTestSuite) TestList_SearchCaseInsensitive() {
	match := s.seed(func(c *models.Communication) { c.Subject = "URGENT: water heater" })
	s.seed(func(c *models.Communication) { c.Subject = "routine checkup" })

	comms, _, err := s.repo.List(context.Background(), ListFilter{
		CompanyID: s.company.ID,
		Search:    "urgent",
	})

	require.NoError(s.T(), err)
	require.Len(s.T(), comms, 1)
	assert.Equal(s.T(), match.ID, comms[0].ID)
}

func (s *CommunicationRepositoryTestSuite) TestList_SearchEscapesWildcards() {
	s.seed(func(c *models.Communication) { c.Subject = "100 units" })
	literal := s.seed(func(c *models.Communication) { c.Subject = "100% satisfaction" })

	comms, _, err := s.repo.List(context.Background(), ListFilter{
		CompanyID: s.company.ID,
		Search:    "100%",
	})

	require.NoError(s.T(), err)
	require.Len(s.T(), comms, 1)
	assert.Equal(s.T(), literal.ID, comms[0].ID)
}

func (s *CommunicationRepositoryTestSuite) TestList_SearchEscapesUnderscore() {
	s.seed(func(c *models.Communication) { c.Subject = "invoice 2026" })
	literal := s.seed(func(c *models.Communication) { c.Subject = "invoice_2026" })

	comms, _, err := s.repo.List(context.Background(), ListFilter{
		CompanyID: s.company.ID,
		Search:    "invoice_",
	})

	require.NoError(s.T(), err)
	require.Len(s.T(), comms, 1)
	assert.Equal(s.T(), literal.ID, comms[0].ID)
}

func (s *CommunicationRepositoryTestSuite) TestList_PaginationAndOrder() {
	now := time.Now()
	for i := 0; i < 5; i++ {
		ts := now.Add(time.Duration(i) * time.Minute)
		s.seed(func(c *models.Communication) { c.CreatedAt = ts })
	}

	comms, total, err := s.repo.List(context.Background(), ListFilter{
		CompanyID: s.company.ID,
		Limit:     2,
		Offset:    1,
	})

	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(5), total)
	require.Len(s.T(), comms, 2)
	assert.True(s.T(), comms[0].CreatedAt.After(comms[1].CreatedAt))
}

func (s *CommunicationRepositoryTestSuite) TestMarkReadAndUnread() {
	comm := s.seed(nil)

	require.NoError(s.T(), s.repo.MarkRead(context.Background(), s.company.ID, comm.ID))
	got, err := s.repo.GetByID(context.Background(), s.company.ID, comm.ID)
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), got.ReadAt)
	assert.True(s.T(), got.IsRead())

	require.NoError(s.T(), s.repo.MarkUnread(context.Background(), s.company.ID, comm.ID))
	got, err = s.repo.GetByID(context.Background(), s.company.ID, comm.ID)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), got.ReadAt)
}

func (s *CommunicationRepositoryTestSuite) TestSnoozeAndUnsnooze() {
	comm := s.seed(nil)
	until := time.Now().Add(4 * time.Hour)

	require.NoError(s.T(), s.repo.Snooze(context.Background(), s.company.ID, comm.ID, until))
	got, err := s.repo.GetByID(context.Background(), s.company.ID, comm.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), got.SnoozedUntil)
	assert.WithinDuration(s.T(), until, *got.SnoozedUntil, time.Second)

	require.NoError(s.T(), s.repo.Unsnooze(context.Background(), s.company.ID, comm.ID))
	got, err = s.repo.GetByID(context.Background(), s.company.ID, comm.ID)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), got.SnoozedUntil)
}

func (s *CommunicationRepositoryTestSuite) TestSoftDeleteAndRestore() {
	comm := s.seed(nil)

	require.NoError(s.T(), s.repo.SoftDelete(context.Background(), s.company.ID, comm.ID))
	got, err := s.repo.GetByID(context.Background(), s.company.ID, comm.ID)
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), got.DeletedAt)

	require.NoError(s.T(), s.repo.Restore(context.Background(), s.company.ID, comm.ID))
	got, err = s.repo.GetByID(context.Background(), s.company.ID, comm.ID)
	require.NoError(s.T(), err)
	assert.Nil(s.T(), got.DeletedAt)
}

func (s *CommunicationRepositoryTestSuite) TestAddTag_Idempotent() {
	comm := s.seed(nil)

	require.NoError(s.T(), s.repo.AddTag(context.Background(), s.company.ID, comm.ID, "starred"))
	require.NoError(s.T(), s.repo.AddTag(context.Background(), s.company.ID, comm.ID, "starred"))

	got, err := s.repo.GetByID(context.Background(), s.company.ID, comm.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.TagList{"starred"}, got.Tags)
}

func (s *CommunicationRepositoryTestSuite) TestRemoveTag_PreservesOthers() {
	comm := s.seed(func(c *models.Communication) { c.Tags = models.TagList{"starred", "vip"} })

	require.NoError(s.T(), s.repo.RemoveTag(context.Background(), s.company.ID, comm.ID, "starred"))

	got, err := s.repo.GetByID(context.Background(), s.company.ID, comm.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.TagList{"vip"}, got.Tags)
}

func (s *CommunicationRepositoryTestSuite) TestRemoveTag_MissingTagIsNoop() {
	comm := s.seed(nil)

	err := s.repo.RemoveTag(context.Background(), s.company.ID, comm.ID, "starred")

	assert.NoError(s.T(), err)
}

func (s *CommunicationRepositoryTestSuite) TestSetCategory() {
	comm := s.seed(nil)

	require.NoError(s.T(), s.repo.SetCategory(context.Background(), s.company.ID, comm.ID, models.CategorySpam))

	got, err := s.repo.GetByID(context.Background(), s.company.ID, comm.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.CategorySpam, got.Category)
}

func (s *CommunicationRepositoryTestSuite) TestUpdates_ScopedToCompany() {
	comm := s.seed(nil)

	err := s.repo.MarkRead(context.Background(), s.other.ID, comm.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	err = s.repo.SoftDelete(context.Background(), s.other.ID, comm.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	got, getErr := s.repo.GetByID(context.Background(), s.company.ID, comm.ID)
	require.NoError(s.T(), getErr)
	assert.Nil(s.T(), got.ReadAt)
	assert.Nil(s.T(), got.DeletedAt)
}

func (s *CommunicationRepositoryTestSuite) TestUpdate_UnknownID() {
	err := s.repo.MarkRead(context.Background(), s.company.ID, "does-not-exist")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *CommunicationRepositoryTestSuite) TestGetByProviderMessageID() {
	comm := s.seed(func(c *models.Communication) { c.ProviderMessageID = "msg-7781" })
	s.seed(func(c *models.Communication) { c.ProviderMessageID = "msg-other" })

	got, err := s.repo.GetByProviderMessageID(context.Background(), s.company.ID, "msg-7781")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), comm.ID, got.ID)

	_, err = s.repo.GetByProviderMessageID(context.Background(), s.company.ID, "msg-missing")
	assert.ErrorIs(s.T(), err, ErrNotFound)

	_, err = s.repo.GetByProviderMessageID(context.Background(), s.company.ID, "")
	assert.ErrorIs(s.T(), err, ErrInvalidInput)
}

func (s *CommunicationRepositoryTestSuite) TestGetByProviderMessageID_ScopedToCompany() {
	s.seed(func(c *models.Communication) { c.ProviderMessageID = "msg-7781" })

	_, err := s.repo.GetByProviderMessageID(context.Background(), s.other.ID, "msg-7781")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *CommunicationRepositoryTestSuite) TestSetDelivered() {
	comm := s.seed(func(c *models.Communication) {
		c.Direction = models.DirectionOutbound
		c.Status = models.StatusSent
	})

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(s.T(), s.repo.SetDelivered(context.Background(), s.company.ID, comm.ID, at))

	got, err := s.repo.GetByID(context.Background(), s.company.ID, comm.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.StatusDelivered, got.Status)
	require.NotNil(s.T(), got.DeliveredAt)
	assert.True(s.T(), got.DeliveredAt.Equal(at))
}
