package webhook

import (
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/fieldline/comms-backend/internal/errors"
)

// Provider event types this service ingests
const (
	EventMessageReceived   = "message.received"
	EventMessageFinalized  = "message.finalized"
	EventCallHangup        = "call.hangup"
	EventVoicemailReceived = "voicemail.received"
)

// Envelope is the outer wrapper of a provider delivery
type Envelope struct {
	Data Event `json:"data"`
}

// Event is one provider event
type Event struct {
	ID         string       `json:"id"`
	EventType  string       `json:"event_type"`
	OccurredAt time.Time    `json:"occurred_at"`
	Payload    EventPayload `json:"payload"`
}

// EventPayload carries the channel-specific fields. The provider sends
// a superset of these per event type; unknown fields are ignored.
type EventPayload struct {
	ID        string     `json:"id"`
	Direction string     `json:"direction"`
	From      Endpoint   `json:"from"`
	To        []Endpoint `json:"to"`
	Text      string     `json:"text"`

	// Call fields
	CallDurationSecs int    `json:"call_duration_secs"`
	HangupCause      string `json:"hangup_cause"`

	// Voicemail fields
	RecordingURL  string `json:"recording_url"`
	Transcription string `json:"transcription"`
}

// Endpoint is one side of a message or call
type Endpoint struct {
	PhoneNumber string `json:"phone_number"`
	DisplayName string `json:"display_name"`
}

// ParseEnvelope decodes a delivery body and checks that the event type
// is one this service understands.
func ParseEnvelope(body []byte) (*Event, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed event body", apperrors.ErrInvalidInput)
	}

	switch env.Data.EventType {
	case EventMessageReceived, EventMessageFinalized, EventCallHangup, EventVoicemailReceived:
		return &env.Data, nil
	default:
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownEvent, env.Data.EventType)
	}
}

// firstTo returns the primary destination number, or empty
func (p EventPayload) firstTo() string {
	if len(p.To) == 0 {
		return ""
	}
	return p.To[0].PhoneNumber
}
