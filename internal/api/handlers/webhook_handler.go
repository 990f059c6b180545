package handlers

import (
	"errors"
	"io"

	"github.com/fieldline/comms-backend/internal/api/response"
	apperrors "github.com/fieldline/comms-backend/internal/errors"
	"github.com/fieldline/comms-backend/internal/logger"
	"github.com/fieldline/comms-backend/internal/metrics"
	"github.com/fieldline/comms-backend/internal/repository"
	"github.com/fieldline/comms-backend/internal/validator"
	"github.com/fieldline/comms-backend/internal/webhook"
	"github.com/labstack/echo/v4"
)

// maxWebhookBody caps the raw body read from a webhook delivery
const maxWebhookBody = 1 << 20 // 1 MB

// WebhookHandler handles signed provider event deliveries
type WebhookHandler struct {
	verifier  *webhook.Verifier
	ingestor  *webhook.Ingestor
	secLogger *logger.SecurityLogger
}

// NewWebhookHandler creates a new WebhookHandler. A nil verifier skips
// signature verification (development mode only).
func NewWebhookHandler(verifier *webhook.Verifier, ingestor *webhook.Ingestor, secLogger *logger.SecurityLogger) *WebhookHandler {
	return &WebhookHandler{
		verifier:  verifier,
		ingestor:  ingestor,
		secLogger: secLogger,
	}
}

// Receive handles POST /webhooks/telnyx/:company_id
func (h *WebhookHandler) Receive(c echo.Context) error {
	companyID := c.Param("company_id")
	if err := validator.ValidateUUID(companyID); err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("rejected").Inc()
		return response.BadRequest(c, "invalid company ID")
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("rejected").Inc()
		return response.BadRequest(c, "failed to read request body")
	}

	if h.verifier != nil {
		timestamp := c.Request().Header.Get(webhook.HeaderTimestamp)
		signature := c.Request().Header.Get(webhook.HeaderSignature)

		if err := h.verifier.Verify(timestamp, signature, body); err != nil {
			metrics.WebhookEventsTotal.WithLabelValues("rejected").Inc()
			if h.secLogger != nil {
				h.secLogger.WebhookRejected(c.RealIP(), companyID, err.Error())
			}
			return response.Error(c, err)
		}
	}

	event, err := webhook.ParseEnvelope(body)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("rejected").Inc()
		if errors.Is(err, apperrors.ErrUnknownEvent) {
			return response.Error(c, err)
		}
		return response.BadRequest(c, "malformed event payload")
	}

	comm, err := h.ingestor.Ingest(c.Request().Context(), companyID, event)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("failed").Inc()
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "company not found")
		}
		return response.InternalError(c, "failed to store event")
	}

	metrics.WebhookEventsTotal.WithLabelValues("accepted").Inc()
	return response.Success(c, map[string]string{
		"communication_id": comm.ID,
	})
}
