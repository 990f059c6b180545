package smtp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/fieldline/comms-backend/internal/metrics"
	"github.com/fieldline/comms-backend/internal/models"
	"github.com/fieldline/comms-backend/internal/repository"
	"github.com/fieldline/comms-backend/internal/websocket"
)

// recipientRoute is a resolved delivery target: a member's personal
// mailbox (ownerID set) or the company's shared inbox (ownerID nil).
type recipientRoute struct {
	address   string
	companyID string
	ownerID   *string
}

// Session implements the go-smtp Session interface
type Session struct {
	backend *Backend
	from    string
	routes  []recipientRoute
}

// NewSession creates a new SMTP session
func NewSession(backend *Backend) *Session {
	return &Session{
		backend: backend,
		routes:  make([]recipientRoute, 0),
	}
}

// AuthPlain handles PLAIN authentication (not required for receiving)
func (s *Session) AuthPlain(username, password string) error {
	// No authentication required for receiving emails
	return nil
}

// Mail handles the MAIL FROM command
func (s *Session) Mail(from string, opts *smtp.MailOptions) error {
	s.from = from
	if s.backend.logger != nil {
		s.backend.logger.Debug("MAIL FROM", slog.String("from", from))
	}
	return nil
}

// Rcpt handles the RCPT TO command. A recipient must resolve to an
// active team member's address or to a company's shared intake address.
func (s *Session) Rcpt(to string, opts *smtp.RcptOptions) error {
	address, err := normalizeAddress(to)
	if err != nil {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "Invalid recipient address",
		}
	}

	route, err := s.resolveRecipient(context.Background(), address)
	if err != nil {
		return err
	}

	s.routes = append(s.routes, route)
	if s.backend.logger != nil {
		s.backend.logger.Debug("RCPT TO",
			slog.String("to", address),
			slog.Bool("shared", route.ownerID == nil))
	}
	return nil
}

// resolveRecipient maps an address to its delivery route. Team member
// addresses take precedence; the company intake address is the shared
// mailbox fallback.
func (s *Session) resolveRecipient(ctx context.Context, address string) (recipientRoute, *smtp.SMTPError) {
	member, err := s.backend.memberRepo.GetByEmail(ctx, address)
	switch {
	case err == nil:
		if !member.IsActive {
			return recipientRoute{}, &smtp.SMTPError{
				Code:         550,
				EnhancedCode: smtp.EnhancedCode{5, 1, 1},
				Message:      "Recipient mailbox disabled",
			}
		}
		owner := member.ID
		return recipientRoute{address: address, companyID: member.CompanyID, ownerID: &owner}, nil

	case !errors.Is(err, repository.ErrNotFound):
		return recipientRoute{}, &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Temporary error",
		}
	}

	if s.backend.companyRepo != nil {
		company, err := s.backend.companyRepo.GetByIntakeEmail(ctx, address)
		switch {
		case err == nil:
			return recipientRoute{address: address, companyID: company.ID}, nil
		case !errors.Is(err, repository.ErrNotFound):
			return recipientRoute{}, &smtp.SMTPError{
				Code:         451,
				EnhancedCode: smtp.EnhancedCode{4, 3, 0},
				Message:      "Temporary error",
			}
		}
	}

	return recipientRoute{}, &smtp.SMTPError{
		Code:         550,
		EnhancedCode: smtp.EnhancedCode{5, 1, 1},
		Message:      "Recipient not found",
	}
}

// Data handles the DATA command - receives the email content
func (s *Session) Data(r io.Reader) error {
	if len(s.routes) == 0 {
		return &smtp.SMTPError{
			Code:         503,
			EnhancedCode: smtp.EnhancedCode{5, 5, 1},
			Message:      "No recipients specified",
		}
	}

	// Parse the email
	parsedEmail, err := ParseEmail(r)
	if err != nil {
		if s.backend.logger != nil {
			s.backend.logger.Error("failed to parse email", slog.Any("error", err))
		}
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Failed to parse email",
		}
	}

	// Override sender from envelope if not in headers
	if parsedEmail.FromAddress == "" {
		parsedEmail.FromAddress = s.from
	}

	ctx := context.Background()

	// Process for each resolved recipient
	for _, route := range s.routes {
		if err := s.processEmail(ctx, route, parsedEmail); err != nil {
			if s.backend.logger != nil {
				s.backend.logger.Error("failed to process email",
					slog.String("recipient", route.address),
					slog.Any("error", err))
			}
			// Continue processing other recipients
		}
	}

	if s.backend.logger != nil {
		s.backend.logger.Info("email received",
			slog.String("from", s.from),
			slog.Int("recipients", len(s.routes)),
			slog.String("subject", parsedEmail.Subject))
	}

	return nil
}

// processEmail stores the email as a communication in the route's
// mailbox: personal when the route has an owner, shared otherwise.
func (s *Session) processEmail(ctx context.Context, route recipientRoute, email *ParsedEmail) error {
	// Prefer the To header; fall back to the envelope recipient
	toAddress := encodeToAddress(email.ToAddresses)
	if toAddress == "" {
		toAddress = route.address
	}

	comm := &models.Communication{
		CompanyID:      route.companyID,
		MailboxOwnerID: route.ownerID,
		Type:           models.TypeEmail,
		Direction:      models.DirectionInbound,
		Status:         models.StatusReceived,
		Category:       models.CategoryGeneral,
		Subject:        email.Subject,
		Body:           email.BodyText,
		BodyHTML:       email.BodyHTML,
		FromAddress:    email.FromAddress,
		FromName:       email.FromName,
		ToAddress:      toAddress,
	}

	if err := s.backend.commRepo.Create(ctx, comm); err != nil {
		return fmt.Errorf("failed to create communication: %w", err)
	}

	metrics.CommunicationsIngested.WithLabelValues(string(models.TypeEmail), "smtp").Inc()

	// Notify WebSocket subscribers
	if s.backend.wsHub != nil {
		s.backend.wsHub.BroadcastNewCommunication(route.companyID, &websocket.NewCommunicationPayload{
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

	return nil
}

// Reset resets the session state
func (s *Session) Reset() {
	s.from = ""
	s.routes = make([]recipientRoute, 0)
}

// Logout handles the end of the session
func (s *Session) Logout() error {
	return nil
}

// normalizeAddress strips envelope angle brackets and lowercases
func normalizeAddress(address string) (string, error) {
	address = strings.TrimPrefix(address, "<")
	address = strings.TrimSuffix(address, ">")
	address = strings.ToLower(strings.TrimSpace(address))

	parts := strings.Split(address, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", fmt.Errorf("invalid email address: %s", address)
	}

	return address, nil
}
