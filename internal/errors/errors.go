package errors

import (
	"errors"
	"fmt"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateEntry indicates a unique constraint violation
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrCompanyNotFound indicates the company was not found
	ErrCompanyNotFound = errors.New("company not found")

	// ErrMemberNotFound indicates the team member was not found
	ErrMemberNotFound = errors.New("team member not found")

	// ErrCommunicationNotFound indicates the communication was not found
	ErrCommunicationNotFound = errors.New("communication not found")

	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates forbidden access
	ErrForbidden = errors.New("forbidden")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")

	// Webhook-specific errors
	// ErrInvalidSignature indicates webhook signature verification failed
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrStaleEvent indicates the webhook event timestamp fell outside the replay window
	ErrStaleEvent = errors.New("webhook event outside replay window")

	// ErrUnknownEvent indicates the webhook event type is not handled
	ErrUnknownEvent = errors.New("unknown webhook event type")
)

// Error codes for API responses
const (
	CodeNotFound         = "NOT_FOUND"
	CodeDuplicateEntry   = "DUPLICATE_ENTRY"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeInvalidSignature = "INVALID_SIGNATURE"
	CodeStaleEvent       = "STALE_EVENT"
	CodeUnknownEvent     = "UNKNOWN_EVENT"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCompanyNotFound) ||
		errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrCommunicationNotFound)
}

// IsDuplicateEntry checks if the error is a duplicate entry error
func IsDuplicateEntry(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	switch {
	case IsNotFound(err):
		return CodeNotFound
	case IsDuplicateEntry(err):
		return CodeDuplicateEntry
	case IsInvalidInput(err):
		return CodeInvalidInput
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrInvalidSignature):
		return CodeInvalidSignature
	case errors.Is(err, ErrStaleEvent):
		return CodeStaleEvent
	case errors.Is(err, ErrUnknownEvent):
		return CodeUnknownEvent
	default:
		return CodeInternalError
	}
}
