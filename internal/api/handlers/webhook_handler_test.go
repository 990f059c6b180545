package handlers

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fieldline/comms-backend/internal/models"
	"github.com/fieldline/comms-backend/internal/repository"
	"github.com/fieldline/comms-backend/internal/webhook"
	"github.com/fieldline/comms-backend/tests/mocks"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// WebhookHandlerTestSuite covers signed event intake over HTTP
type WebhookHandlerTestSuite struct {
	suite.Suite
	commRepo    *mocks.MockCommunicationRepository
	companyRepo *mocks.MockCompanyRepository
	privateKey  ed25519.PrivateKey
	handler     *WebhookHandler
	companyID   string
}

// SetupTest runs before each test
func (s *WebhookHandlerTestSuite) SetupTest() {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(s.T(), err)
	s.privateKey = privateKey

	verifier, err := webhook.NewVerifier(base64.StdEncoding.EncodeToString(publicKey), 0)
	require.NoError(s.T(), err)

	s.commRepo = new(mocks.MockCommunicationRepository)
	s.companyRepo = new(mocks.MockCompanyRepository)
	ingestor := webhook.NewIngestor(s.commRepo, s.companyRepo, nil, nil, nil)
	s.handler = NewWebhookHandler(verifier, ingestor, nil)
	s.companyID = uuid.NewString()
}

// TestWebhookHandlerTestSuite runs the test suite
func TestWebhookHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(WebhookHandlerTestSuite))
}

// sign produces a valid signature for the given timestamp and body
func (s *WebhookHandlerTestSuite) sign(timestamp string, body []byte) string {
	message := append([]byte(timestamp+"|"), body...)
	return base64.StdEncoding.EncodeToString(ed25519.Sign(s.privateKey, message))
}

// newContext builds an echo context for a webhook delivery
func (s *WebhookHandlerTestSuite) newContext(body, timestamp, signature string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/telnyx/"+s.companyID, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if timestamp != "" {
		req.Header.Set(webhook.HeaderTimestamp, timestamp)
	}
	if signature != "" {
		req.Header.Set(webhook.HeaderSignature, signature)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("company_id")
	c.SetParamValues(s.companyID)
	return c, rec
}

func smsEventBody() string {
	return `{"data":{"id":"evt-1","event_type":"message.received","occurred_at":"2026-01-02T15:04:05Z","payload":{"direction":"inbound","from":{"phone_number":"+15551230001"},"to":[{"phone_number":"+15551230002"}],"text":"hello"}}}`
}

func (s *WebhookHandlerTestSuite) TestReceive_ValidDelivery() {
	s.companyRepo.On("GetByID", mock.Anything, s.companyID).
		Return(&models.Company{ID: s.companyID, Name: "Acme"}, nil)
	s.commRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	body := smsEventBody()
	ts := fmt.Sprintf("%d", time.Now().Unix())
	c, rec := s.newContext(body, ts, s.sign(ts, []byte(body)))

	require.NoError(s.T(), s.handler.Receive(c))

	assert.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), "communication_id")
	s.commRepo.AssertExpectations(s.T())
}

func (s *WebhookHandlerTestSuite) TestReceive_TamperedBody() {
	body := smsEventBody()
	ts := fmt.Sprintf("%d", time.Now().Unix())
	signature := s.sign(ts, []byte(body))

	tampered := strings.Replace(body, "hello", "gotcha", 1)
	c, rec := s.newContext(tampered, ts, signature)

	require.NoError(s.T(), s.handler.Receive(c))

	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), "INVALID_SIGNATURE")
	s.commRepo.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *WebhookHandlerTestSuite) TestReceive_StaleTimestamp() {
	body := smsEventBody()
	ts := fmt.Sprintf("%d", time.Now().Add(-10*time.Minute).Unix())
	c, rec := s.newContext(body, ts, s.sign(ts, []byte(body)))

	require.NoError(s.T(), s.handler.Receive(c))

	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), "STALE_EVENT")
}

func (s *WebhookHandlerTestSuite) TestReceive_MissingSignatureHeaders() {
	body := smsEventBody()
	c, rec := s.newContext(body, "", "")

	require.NoError(s.T(), s.handler.Receive(c))

	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code)
}

func (s *WebhookHandlerTestSuite) TestReceive_UnknownEventType() {
	body := `{"data":{"event_type":"fax.received","payload":{}}}`
	ts := fmt.Sprintf("%d", time.Now().Unix())
	c, rec := s.newContext(body, ts, s.sign(ts, []byte(body)))

	require.NoError(s.T(), s.handler.Receive(c))

	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
	assert.Contains(s.T(), rec.Body.String(), "UNKNOWN_EVENT")
}

func (s *WebhookHandlerTestSuite) TestReceive_MalformedBody() {
	body := `{"data":`
	ts := fmt.Sprintf("%d", time.Now().Unix())
	c, rec := s.newContext(body, ts, s.sign(ts, []byte(body)))

	require.NoError(s.T(), s.handler.Receive(c))

	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *WebhookHandlerTestSuite) TestReceive_UnknownCompany() {
	s.companyRepo.On("GetByID", mock.Anything, s.companyID).
		Return(nil, repository.ErrNotFound)

	body := smsEventBody()
	ts := fmt.Sprintf("%d", time.Now().Unix())
	c, rec := s.newContext(body, ts, s.sign(ts, []byte(body)))

	require.NoError(s.T(), s.handler.Receive(c))

	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

func (s *WebhookHandlerTestSuite) TestReceive_InvalidCompanyID() {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/telnyx/abc", strings.NewReader(smsEventBody()))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("company_id")
	c.SetParamValues("abc")

	require.NoError(s.T(), s.handler.Receive(c))

	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *WebhookHandlerTestSuite) TestReceive_NoVerifierSkipsVerification() {
	s.companyRepo.On("GetByID", mock.Anything, s.companyID).
		Return(&models.Company{ID: s.companyID, Name: "Acme"}, nil)
	s.commRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	ingestor := webhook.NewIngestor(s.commRepo, s.companyRepo, nil, nil, nil)
	handler := NewWebhookHandler(nil, ingestor, nil)

	c, rec := s.newContext(smsEventBody(), "", "")
	require.NoError(s.T(), handler.Receive(c))

	assert.Equal(s.T(), http.StatusOK, rec.Code)
}
