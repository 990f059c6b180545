package handlers

import (
	"errors"

	"github.com/fieldline/comms-backend/internal/api/response"
	"github.com/fieldline/comms-backend/internal/models"
	"github.com/fieldline/comms-backend/internal/repository"
	"github.com/fieldline/comms-backend/internal/validator"
	"github.com/labstack/echo/v4"
)

// CompanyHandler handles company (tenant) HTTP requests
type CompanyHandler struct {
	companyRepo repository.CompanyRepository
}

// NewCompanyHandler creates a new CompanyHandler
func NewCompanyHandler(companyRepo repository.CompanyRepository) *CompanyHandler {
	return &CompanyHandler{companyRepo: companyRepo}
}

// CreateCompanyRequest represents the request to create a company.
// IntakeEmail is the optional shared-inbox address for SMTP intake.
type CreateCompanyRequest struct {
	Name        string  `json:"name"`
	IntakeEmail *string `json:"intake_email"`
}

// Create handles POST /api/companies
func (h *CompanyHandler) Create(c echo.Context) error {
	var req CreateCompanyRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	name := validator.SanitizeString(req.Name, 255)
	if name == "" {
		return response.BadRequest(c, "company name is required")
	}

	company := &models.Company{Name: name}
	if req.IntakeEmail != nil && *req.IntakeEmail != "" {
		if err := validator.ValidateEmail(*req.IntakeEmail); err != nil {
			return response.BadRequest(c, "invalid intake_email")
		}
		company.IntakeEmail = req.IntakeEmail
	}

	if err := h.companyRepo.Create(c.Request().Context(), company); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return response.Conflict(c, "company already exists")
		}
		return response.InternalError(c, "failed to create company")
	}

	return response.Created(c, company)
}

// List handles GET /api/companies
func (h *CompanyHandler) List(c echo.Context) error {
	companies, err := h.companyRepo.List(c.Request().Context())
	if err != nil {
		return response.InternalError(c, "failed to list companies")
	}
	return response.Success(c, companies)
}

// Get handles GET /api/companies/:id
func (h *CompanyHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if err := validator.ValidateUUID(id); err != nil {
		return response.BadRequest(c, "invalid company ID")
	}

	company, err := h.companyRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "company not found")
		}
		return response.InternalError(c, "failed to get company")
	}

	return response.Success(c, company)
}

// Delete handles DELETE /api/companies/:id (soft delete)
func (h *CompanyHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := validator.ValidateUUID(id); err != nil {
		return response.BadRequest(c, "invalid company ID")
	}

	if err := h.companyRepo.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "company not found")
		}
		return response.InternalError(c, "failed to delete company")
	}

	return response.NoContent(c)
}
