// Package webhook implements signed event intake from the telephony
// provider: ED25519 signature verification with a replay window, event
// envelope decoding, and mapping events into stored communications.
package webhook

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/fieldline/comms-backend/internal/errors"
)

// Header names used by the provider for signed deliveries
const (
	HeaderSignature = "telnyx-signature-ed25519"
	HeaderTimestamp = "telnyx-timestamp"
)

// DefaultTolerance is the allowed clock skew between the signed
// timestamp and the server clock.
const DefaultTolerance = 5 * time.Minute

// Verifier checks ED25519 webhook signatures. The signed message is the
// raw timestamp header, a pipe, and the raw request body.
type Verifier struct {
	publicKey ed25519.PublicKey
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier creates a Verifier from a base64-encoded ED25519 public
// key. A non-positive tolerance falls back to DefaultTolerance.
func NewVerifier(publicKeyB64 string, tolerance time.Duration) (*Verifier, error) {
	raw, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid webhook public key: got %d bytes, want %d", len(raw), ed25519.PublicKeySize)
	}
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{
		publicKey: ed25519.PublicKey(raw),
		tolerance: tolerance,
		now:       time.Now,
	}, nil
}

// Verify checks the signature and replay window for one delivery.
// timestamp is the raw header value (unix seconds), signature is
// base64-encoded, body is the raw request body.
func (v *Verifier) Verify(timestamp, signature string, body []byte) error {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp", apperrors.ErrInvalidSignature)
	}

	drift := v.now().Sub(time.Unix(ts, 0))
	if drift > v.tolerance || drift < -v.tolerance {
		return apperrors.ErrStaleEvent
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: malformed signature encoding", apperrors.ErrInvalidSignature)
	}

	message := make([]byte, 0, len(timestamp)+1+len(body))
	message = append(message, timestamp...)
	message = append(message, '|')
	message = append(message, body...)

	if !ed25519.Verify(v.publicKey, message, sig) {
		return apperrors.ErrInvalidSignature
	}
	return nil
}
