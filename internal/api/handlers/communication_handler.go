package handlers

import (
	"errors"
	"time"

	"github.com/fieldline/comms-backend/internal/api/response"
	"github.com/fieldline/comms-backend/internal/models"
	"github.com/fieldline/comms-backend/internal/repository"
	"github.com/fieldline/comms-backend/internal/validator"
	"github.com/labstack/echo/v4"
)

// CommunicationHandler handles communication mutation HTTP requests.
// Every operation is scoped to the company in the query string; a
// mismatched company never sees or touches another tenant's rows.
type CommunicationHandler struct {
	commRepo repository.CommunicationRepository
}

// NewCommunicationHandler creates a new CommunicationHandler
func NewCommunicationHandler(commRepo repository.CommunicationRepository) *CommunicationHandler {
	return &CommunicationHandler{commRepo: commRepo}
}

// scope extracts and validates the tenant scope and row ID
func (h *CommunicationHandler) scope(c echo.Context) (companyID, id string, err error) {
	companyID = c.QueryParam("company_id")
	if vErr := validator.ValidateUUID(companyID); vErr != nil {
		return "", "", response.BadRequest(c, "invalid company_id")
	}
	id = c.Param("id")
	if vErr := validator.ValidateUUID(id); vErr != nil {
		return "", "", response.BadRequest(c, "invalid communication ID")
	}
	return companyID, id, nil
}

// respondMutation maps repository errors to API responses
func respondMutation(c echo.Context, err error, message string) error {
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "communication not found")
		}
		return response.InternalError(c, "failed to update communication")
	}
	return response.SuccessWithMessage(c, nil, message)
}

// CreateCommunicationRequest is the body for creating an outbound
// communication. Inbound rows come from the webhook and SMTP intakes.
type CreateCommunicationRequest struct {
	Type           string  `json:"type"`
	Status         string  `json:"status"`
	Category       string  `json:"category"`
	MailboxOwnerID *string `json:"mailbox_owner_id"`
	Subject        string  `json:"subject"`
	Body           string  `json:"body"`
	BodyHTML       string  `json:"body_html"`
	FromAddress    string  `json:"from_address"`
	FromName       string  `json:"from_name"`
	ToAddress      string  `json:"to_address"`
}

// Create handles POST /api/communications
func (h *CommunicationHandler) Create(c echo.Context) error {
	companyID := c.QueryParam("company_id")
	if err := validator.ValidateUUID(companyID); err != nil {
		return response.BadRequest(c, "invalid company_id")
	}

	var req CreateCommunicationRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	commType := models.CommunicationType(req.Type)
	switch commType {
	case models.TypeEmail, models.TypeSMS, models.TypeCall, models.TypeVoicemail:
	default:
		return response.BadRequest(c, "invalid communication type")
	}

	status := models.Status(req.Status)
	switch status {
	case "":
		status = models.StatusDraft
	case models.StatusDraft, models.StatusQueued, models.StatusSent:
	default:
		return response.BadRequest(c, "invalid status for outbound communication")
	}

	category := models.Category(req.Category)
	switch category {
	case "":
		category = models.CategoryGeneral
	case models.CategorySupport, models.CategorySales, models.CategoryBilling,
		models.CategoryGeneral:
	default:
		return response.BadRequest(c, "invalid category")
	}

	if req.MailboxOwnerID != nil {
		if err := validator.ValidateUUID(*req.MailboxOwnerID); err != nil {
			return response.BadRequest(c, "invalid mailbox_owner_id")
		}
	}

	comm := &models.Communication{
		CompanyID:      companyID,
		MailboxOwnerID: req.MailboxOwnerID,
		Type:           commType,
		Direction:      models.DirectionOutbound,
		Status:         status,
		Category:       category,
		Subject:        validator.SanitizeString(req.Subject, 998),
		Body:           req.Body,
		BodyHTML:       req.BodyHTML,
		FromAddress:    validator.SanitizeString(req.FromAddress, 512),
		FromName:       validator.SanitizeString(req.FromName, 255),
		ToAddress:      validator.SanitizeString(req.ToAddress, 512),
	}
	if status == models.StatusSent {
		now := time.Now()
		comm.SentAt = &now
	}

	if err := h.commRepo.Create(c.Request().Context(), comm); err != nil {
		return response.InternalError(c, "failed to create communication")
	}

	return response.Created(c, comm)
}

// Get handles GET /api/communications/:id
func (h *CommunicationHandler) Get(c echo.Context) error {
	companyID, id, err := h.scope(c)
	if err != nil {
		return err
	}

	comm, err := h.commRepo.GetByID(c.Request().Context(), companyID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "communication not found")
		}
		return response.InternalError(c, "failed to get communication")
	}

	return response.Success(c, comm)
}

// MarkRead handles PATCH /api/communications/:id/read
func (h *CommunicationHandler) MarkRead(c echo.Context) error {
	companyID, id, err := h.scope(c)
	if err != nil {
		return err
	}
	err = h.commRepo.MarkRead(c.Request().Context(), companyID, id)
	return respondMutation(c, err, "communication marked as read")
}

// MarkUnread handles PATCH /api/communications/:id/unread
func (h *CommunicationHandler) MarkUnread(c echo.Context) error {
	companyID, id, err := h.scope(c)
	if err != nil {
		return err
	}
	err = h.commRepo.MarkUnread(c.Request().Context(), companyID, id)
	return respondMutation(c, err, "communication marked as unread")
}

// Archive handles PATCH /api/communications/:id/archive
func (h *CommunicationHandler) Archive(c echo.Context) error {
	companyID, id, err := h.scope(c)
	if err != nil {
		return err
	}
	err = h.commRepo.SetArchived(c.Request().Context(), companyID, id, true)
	return respondMutation(c, err, "communication archived")
}

// Unarchive handles PATCH /api/communications/:id/unarchive
func (h *CommunicationHandler) Unarchive(c echo.Context) error {
	companyID, id, err := h.scope(c)
	if err != nil {
		return err
	}
	err = h.commRepo.SetArchived(c.Request().Context(), companyID, id, false)
	return respondMutation(c, err, "communication unarchived")
}

// Star handles PATCH /api/communications/:id/star
func (h *CommunicationHandler) Star(c echo.Context) error {
	companyID, id, err := h.scope(c)
	if err != nil {
		return err
	}
	err = h.commRepo.AddTag(c.Request().Context(), companyID, id, models.TagStarred)
	return respondMutation(c, err, "communication starred")
}

// Unstar handles PATCH /api/communications/:id/unstar
func (h *CommunicationHandler) Unstar(c echo.Context) error {
	companyID, id, err := h.scope(c)
	if err != nil {
		return err
	}
	err = h.commRepo.RemoveTag(c.Request().Context(), companyID, id, models.TagStarred)
	return respondMutation(c, err, "communication unstarred")
}

// SnoozeRequest is the body for snooze requests
type SnoozeRequest struct {
	Until time.Time `json:"until"`
}

// Snooze handles PATCH /api/communications/:id/snooze
func (h *CommunicationHandler) Snooze(c echo.Context) error {
	companyID, id, err := h.scope(c)
	if err != nil {
		return err
	}

	var req SnoozeRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := validator.ValidateSnoozeTime(req.Until, time.Now()); err != nil {
		return response.BadRequest(c, err.Error())
	}

	err = h.commRepo.Snooze(c.Request().Context(), companyID, id, req.Until)
	return respondMutation(c, err, "communication snoozed")
}

// Unsnooze handles PATCH /api/communications/:id/unsnooze
func (h *CommunicationHandler) Unsnooze(c echo.Context) error {
	companyID, id, err := h.scope(c)
	if err != nil {
		return err
	}
	err = h.commRepo.Unsnooze(c.Request().Context(), companyID, id)
	return respondMutation(c, err, "communication unsnoozed")
}

// CategorizeRequest is the body for categorize requests
type CategorizeRequest struct {
	Category string `json:"category"`
}

// Categorize handles PATCH /api/communications/:id/category
func (h *CommunicationHandler) Categorize(c echo.Context) error {
	companyID, id, err := h.scope(c)
	if err != nil {
		return err
	}

	var req CategorizeRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	category := models.Category(req.Category)
	switch category {
	case models.CategorySupport, models.CategorySales, models.CategoryBilling,
		models.CategoryGeneral, models.CategorySpam:
	default:
		return response.BadRequest(c, "invalid category")
	}

	err = h.commRepo.SetCategory(c.Request().Context(), companyID, id, category)
	return respondMutation(c, err, "communication categorized")
}

// MarkSpam handles PATCH /api/communications/:id/spam
func (h *CommunicationHandler) MarkSpam(c echo.Context) error {
	companyID, id, err := h.scope(c)
	if err != nil {
		return err
	}
	err = h.commRepo.SetCategory(c.Request().Context(), companyID, id, models.CategorySpam)
	return respondMutation(c, err, "communication marked as spam")
}

// MarkNotSpam handles PATCH /api/communications/:id/not-spam. Clears both
// spam signals: the category and the user-applied tag.
func (h *CommunicationHandler) MarkNotSpam(c echo.Context) error {
	companyID, id, err := h.scope(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.commRepo.SetCategory(ctx, companyID, id, models.CategoryGeneral); err != nil {
		return respondMutation(c, err, "")
	}
	err = h.commRepo.RemoveTag(ctx, companyID, id, models.TagSpam)
	return respondMutation(c, err, "communication marked as not spam")
}

// Delete handles DELETE /api/communications/:id (soft delete)
func (h *CommunicationHandler) Delete(c echo.Context) error {
	companyID, id, err := h.scope(c)
	if err != nil {
		return err
	}

	if err := h.commRepo.SoftDelete(c.Request().Context(), companyID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "communication not found")
		}
		return response.InternalError(c, "failed to delete communication")
	}
	return response.NoContent(c)
}

// Restore handles PATCH /api/communications/:id/restore
func (h *CommunicationHandler) Restore(c echo.Context) error {
	companyID, id, err := h.scope(c)
	if err != nil {
		return err
	}
	err = h.commRepo.Restore(c.Request().Context(), companyID, id)
	return respondMutation(c, err, "communication restored")
}
