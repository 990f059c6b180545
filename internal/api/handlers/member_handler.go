package handlers

import (
	"errors"

	"github.com/fieldline/comms-backend/internal/api/response"
	"github.com/fieldline/comms-backend/internal/models"
	"github.com/fieldline/comms-backend/internal/repository"
	"github.com/fieldline/comms-backend/internal/validator"
	"github.com/labstack/echo/v4"
)

// MemberHandler handles team member HTTP requests
type MemberHandler struct {
	memberRepo  repository.MemberRepository
	companyRepo repository.CompanyRepository
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(memberRepo repository.MemberRepository, companyRepo repository.CompanyRepository) *MemberHandler {
	return &MemberHandler{
		memberRepo:  memberRepo,
		companyRepo: companyRepo,
	}
}

// CreateMemberRequest represents the request to create a team member
type CreateMemberRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Create handles POST /api/companies/:company_id/members
func (h *MemberHandler) Create(c echo.Context) error {
	companyID := c.Param("company_id")
	if err := validator.ValidateUUID(companyID); err != nil {
		return response.BadRequest(c, "invalid company ID")
	}

	var req CreateMemberRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	if err := validator.ValidateEmail(req.Email); err != nil {
		return response.BadRequest(c, "invalid email address")
	}
	displayName := validator.SanitizeString(req.DisplayName, 255)
	if displayName == "" {
		return response.BadRequest(c, "display name is required")
	}

	// Verify the company exists before attaching a member
	if _, err := h.companyRepo.GetByID(c.Request().Context(), companyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "company not found")
		}
		return response.InternalError(c, "failed to get company")
	}

	member := &models.TeamMember{
		CompanyID:   companyID,
		Email:       req.Email,
		DisplayName: displayName,
		IsActive:    true,
	}
	if err := h.memberRepo.Create(c.Request().Context(), member); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return response.Conflict(c, "member email already exists in this company")
		}
		return response.InternalError(c, "failed to create team member")
	}

	return response.Created(c, member)
}

// List handles GET /api/companies/:company_id/members
func (h *MemberHandler) List(c echo.Context) error {
	companyID := c.Param("company_id")
	if err := validator.ValidateUUID(companyID); err != nil {
		return response.BadRequest(c, "invalid company ID")
	}

	members, err := h.memberRepo.ListByCompany(c.Request().Context(), companyID)
	if err != nil {
		return response.InternalError(c, "failed to list team members")
	}
	return response.Success(c, members)
}

// Get handles GET /api/companies/:company_id/members/:id
func (h *MemberHandler) Get(c echo.Context) error {
	companyID := c.Param("company_id")
	if err := validator.ValidateUUID(companyID); err != nil {
		return response.BadRequest(c, "invalid company ID")
	}
	id := c.Param("id")
	if err := validator.ValidateUUID(id); err != nil {
		return response.BadRequest(c, "invalid member ID")
	}

	member, err := h.memberRepo.GetByID(c.Request().Context(), companyID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "team member not found")
		}
		return response.InternalError(c, "failed to get team member")
	}

	return response.Success(c, member)
}

// Deactivate handles PATCH /api/companies/:company_id/members/:id/deactivate
func (h *MemberHandler) Deactivate(c echo.Context) error {
	companyID := c.Param("company_id")
	if err := validator.ValidateUUID(companyID); err != nil {
		return response.BadRequest(c, "invalid company ID")
	}
	id := c.Param("id")
	if err := validator.ValidateUUID(id); err != nil {
		return response.BadRequest(c, "invalid member ID")
	}

	if err := h.memberRepo.Deactivate(c.Request().Context(), companyID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "team member not found")
		}
		return response.InternalError(c, "failed to deactivate team member")
	}

	return response.SuccessWithMessage(c, nil, "team member deactivated")
}
