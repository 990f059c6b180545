package handlers

import (
	"strconv"

	"github.com/fieldline/comms-backend/internal/api/response"
	"github.com/fieldline/comms-backend/internal/inbox"
	"github.com/fieldline/comms-backend/internal/validator"
	"github.com/labstack/echo/v4"
)

// InboxHandler handles inbox resolution HTTP requests
type InboxHandler struct {
	service *inbox.Service
}

// NewInboxHandler creates a new InboxHandler
func NewInboxHandler(service *inbox.Service) *InboxHandler {
	return &InboxHandler{service: service}
}

// Get handles GET /api/inbox
func (h *InboxHandler) Get(c echo.Context) error {
	companyID := c.QueryParam("company_id")
	if err := validator.ValidateUUID(companyID); err != nil {
		return response.BadRequest(c, "invalid company_id")
	}

	memberID := c.QueryParam("member_id")
	if memberID != "" {
		if err := validator.ValidateUUID(memberID); err != nil {
			return response.BadRequest(c, "invalid member_id")
		}
	}

	inboxType, err := inbox.ParseInboxType(c.QueryParam("inbox_type"))
	if err != nil {
		return response.BadRequest(c, "invalid inbox_type")
	}

	folder, err := inbox.ParseFolder(c.QueryParam("folder"))
	if err != nil {
		return response.BadRequest(c, "invalid folder")
	}

	category, err := inbox.ParseCategory(c.QueryParam("category"))
	if err != nil {
		return response.BadRequest(c, "invalid category")
	}

	search := c.QueryParam("search")
	if search != "" {
		search, err = validator.ValidateSearch(search)
		if err != nil {
			return response.BadRequest(c, "invalid search query")
		}
	}

	req := inbox.Request{
		CompanyID: companyID,
		MemberID:  memberID,
		InboxType: inboxType,
		Folder:    folder,
		Category:  category,
		Search:    search,
	}

	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			req.Limit = parsed
		}
	}
	if o := c.QueryParam("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			req.Offset = parsed
		}
	}

	result := h.service.Resolve(c.Request().Context(), req)
	return response.Success(c, result)
}
