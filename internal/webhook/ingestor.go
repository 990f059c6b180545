package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldline/comms-backend/internal/metrics"
	"github.com/fieldline/comms-backend/internal/models"
	"github.com/fieldline/comms-backend/internal/queue"
	"github.com/fieldline/comms-backend/internal/repository"
	"github.com/fieldline/comms-backend/internal/websocket"
)

// Ingestor turns verified provider events into stored communications
// and fans them out to websocket subscribers and the event queue.
type Ingestor struct {
	comms     repository.CommunicationRepository
	companies repository.CompanyRepository
	hub       *websocket.Hub
	publisher queue.Publisher
	logger    *slog.Logger
}

// NewIngestor creates a new Ingestor. hub and publisher may be nil.
func NewIngestor(
	comms repository.CommunicationRepository,
	companies repository.CompanyRepository,
	hub *websocket.Hub,
	publisher queue.Publisher,
	logger *slog.Logger,
) *Ingestor {
	return &Ingestor{
		comms:     comms,
		companies: companies,
		hub:       hub,
		publisher: publisher,
		logger:    logger,
	}
}

// Ingest stores one event for the tenant in the delivery URL. Fanout
// failures are logged but do not fail the delivery; the communication
// is already durably stored at that point.
func (i *Ingestor) Ingest(ctx context.Context, companyID string, event *Event) (*models.Communication, error) {
	if _, err := i.companies.GetByID(ctx, companyID); err != nil {
		return nil, err
	}

	// A finalize event for a message already on record is a status
	// update, not a new communication.
	if event.EventType == EventMessageFinalized && event.Payload.ID != "" {
		comm, err := i.finalizeExisting(ctx, companyID, event)
		if err != nil {
			return nil, err
		}
		if comm != nil {
			return comm, nil
		}
	}

	comm := mapEvent(companyID, event)
	if err := i.comms.Create(ctx, comm); err != nil {
		return nil, fmt.Errorf("failed to store webhook communication: %w", err)
	}

	metrics.CommunicationsIngested.WithLabelValues(string(comm.Type), "webhook").Inc()

	if i.hub != nil && comm.Direction == models.DirectionInbound {
		i.hub.BroadcastNewCommunication(companyID, &websocket.NewCommunicationPayload{
			ID:          comm.ID,
			Type:        string(comm.Type),
			Direction:   string(comm.Direction),
			Category:    string(comm.Category),
			FromAddress: comm.FromAddress,
			FromName:    comm.FromName,
			Subject:     comm.Subject,
			ReceivedAt:  comm.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	if i.publisher != nil {
		err := i.publisher.Publish(queue.CommunicationEvent{
			EventType:       event.EventType,
			CompanyID:       companyID,
			CommunicationID: comm.ID,
			Type:            string(comm.Type),
			Direction:       string(comm.Direction),
			Category:        string(comm.Category),
			OccurredAt:      event.OccurredAt.UTC().Format(time.RFC3339),
		})
		if err != nil && i.logger != nil {
			i.logger.Error("failed to publish communication event",
				slog.String("communication_id", comm.ID),
				slog.Any("error", err))
		}
	}

	return comm, nil
}

// finalizeExisting marks the stored row for the provider message as
// delivered. Returns (nil, nil) when no row carries the provider ID, in
// which case the caller stores the event as a fresh communication.
func (i *Ingestor) finalizeExisting(ctx context.Context, companyID string, event *Event) (*models.Communication, error) {
	existing, err := i.comms.GetByProviderMessageID(ctx, companyID, event.Payload.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up provider message: %w", err)
	}

	if err := i.comms.SetDelivered(ctx, companyID, existing.ID, event.OccurredAt); err != nil {
		return nil, fmt.Errorf("failed to mark communication delivered: %w", err)
	}

	occurred := event.OccurredAt
	existing.Status = models.StatusDelivered
	existing.DeliveredAt = &occurred
	return existing, nil
}

// mapEvent translates a provider event into a communication row
func mapEvent(companyID string, event *Event) *models.Communication {
	comm := &models.Communication{
		CompanyID:         companyID,
		Category:          models.CategoryGeneral,
		FromAddress:       event.Payload.From.PhoneNumber,
		FromName:          event.Payload.From.DisplayName,
		ToAddress:         event.Payload.firstTo(),
		ProviderMessageID: event.Payload.ID,
	}

	switch event.EventType {
	case EventMessageReceived:
		comm.Type = models.TypeSMS
		comm.Direction = models.DirectionInbound
		comm.Status = models.StatusReceived
		comm.Body = event.Payload.Text

	case EventMessageFinalized:
		comm.Type = models.TypeSMS
		comm.Direction = models.DirectionOutbound
		comm.Status = models.StatusDelivered
		comm.Body = event.Payload.Text
		occurred := event.OccurredAt
		comm.DeliveredAt = &occurred

	case EventCallHangup:
		comm.Type = models.TypeCall
		comm.Direction = models.DirectionInbound
		if models.Direction(event.Payload.Direction) == models.DirectionOutbound {
			comm.Direction = models.DirectionOutbound
		}
		comm.Status = models.StatusReceived
		comm.Subject = "Call"
		comm.Body = fmt.Sprintf("Call ended after %ds (%s)",
			event.Payload.CallDurationSecs, event.Payload.HangupCause)

	case EventVoicemailReceived:
		comm.Type = models.TypeVoicemail
		comm.Direction = models.DirectionInbound
		comm.Status = models.StatusReceived
		comm.Subject = "Voicemail"
		comm.Body = event.Payload.Transcription
		if comm.Body == "" {
			comm.Body = event.Payload.RecordingURL
		}
	}

	return comm
}
