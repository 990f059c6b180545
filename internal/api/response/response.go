// Package response provides the uniform JSON envelope for API handlers.
package response

import (
	"net/http"

	apperrors "github.com/fieldline/comms-backend/internal/errors"
	"github.com/labstack/echo/v4"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    Meta        `json:"meta"`
}

// Meta contains pagination metadata
type Meta struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// statusByCode maps application error codes to HTTP statuses. Codes not
// listed here are treated as internal errors.
var statusByCode = map[string]int{
	apperrors.CodeNotFound:         http.StatusNotFound,
	apperrors.CodeDuplicateEntry:   http.StatusConflict,
	apperrors.CodeInvalidInput:     http.StatusBadRequest,
	apperrors.CodeUnauthorized:     http.StatusUnauthorized,
	apperrors.CodeForbidden:        http.StatusForbidden,
	apperrors.CodeInvalidSignature: http.StatusUnauthorized,
	apperrors.CodeStaleEvent:       http.StatusUnauthorized,
	apperrors.CodeUnknownEvent:     http.StatusBadRequest,
}

// fail writes an error envelope with the given status and code.
func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
	})
}

// Success returns a successful response with data
func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// SuccessWithMessage returns a successful response with a message
func SuccessWithMessage(c echo.Context, data interface{}, message string) error {
	return c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Message: message})
}

// Created returns a 201 Created response
func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// NoContent returns a 204 No Content response
func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// Paginated returns a paginated response
func Paginated(c echo.Context, data interface{}, total int64, limit, offset int, hasMore bool) error {
	return c.JSON(http.StatusOK, PaginatedResponse{
		Success: true,
		Data:    data,
		Meta: Meta{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: hasMore,
		},
	})
}

// Error maps an application error to its HTTP status via its code.
func Error(c echo.Context, err error) error {
	code := apperrors.GetErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return fail(c, status, code, err.Error())
}

// BadRequest returns a 400 Bad Request response
func BadRequest(c echo.Context, message string) error {
	return fail(c, http.StatusBadRequest, apperrors.CodeInvalidInput, message)
}

// NotFound returns a 404 Not Found response
func NotFound(c echo.Context, message string) error {
	return fail(c, http.StatusNotFound, apperrors.CodeNotFound, message)
}

// Conflict returns a 409 Conflict response
func Conflict(c echo.Context, message string) error {
	return fail(c, http.StatusConflict, apperrors.CodeDuplicateEntry, message)
}

// Unauthorized returns a 401 Unauthorized response
func Unauthorized(c echo.Context, message string) error {
	return fail(c, http.StatusUnauthorized, apperrors.CodeUnauthorized, message)
}

// InternalError returns a 500 Internal Server Error response
func InternalError(c echo.Context, message string) error {
	return fail(c, http.StatusInternalServerError, apperrors.CodeInternalError, message)
}
