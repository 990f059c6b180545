// Package validator provides input validation and sanitization functions
// for the comms backend security layer.
package validator

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Validation errors
var (
	ErrInvalidEmail  = errors.New("invalid email format")
	ErrInvalidUUID   = errors.New("invalid uuid format")
	ErrInputTooLong  = errors.New("input exceeds maximum length")
	ErrEmptyInput    = errors.New("input cannot be empty")
	ErrTimeNotFuture = errors.New("time must be in the future")
	ErrTimeTooFarOut = errors.New("time is too far in the future")
)

// MaxSearchLength caps free-text search input
const MaxSearchLength = 256

// MaxSnoozeHorizon caps how far ahead a communication can be snoozed
const MaxSnoozeHorizon = 365 * 24 * time.Hour

// ValidateEmail validates email address format according to RFC 5322.
// Returns nil if valid, or an appropriate error.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if email == "" {
		return ErrEmptyInput
	}

	// RFC 5321 specifies max email length of 254 characters
	if utf8.RuneCountInString(email) > 254 {
		return ErrInputTooLong
	}

	// Use Go's mail package for RFC 5322 validation
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateUUID validates that input parses as a UUID. Path parameters
// carrying entity IDs pass through here before hitting the store.
func ValidateUUID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyInput
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidUUID
	}
	return nil
}

// ValidateSearch sanitizes a free-text search term. Returns the cleaned
// term, or an error when it exceeds the allowed length.
func ValidateSearch(search string) (string, error) {
	search = SanitizeString(search, 0)
	if utf8.RuneCountInString(search) > MaxSearchLength {
		return "", ErrInputTooLong
	}
	return search, nil
}

// ValidateSnoozeTime checks that a snooze target is in the future and
// within the allowed horizon.
func ValidateSnoozeTime(until time.Time, now time.Time) error {
	if !until.After(now) {
		return ErrTimeNotFuture
	}
	if until.Sub(now) > MaxSnoozeHorizon {
		return ErrTimeTooFarOut
	}
	return nil
}

// SanitizeString removes potentially dangerous characters and enforces length limits.
// Removes control characters and trims whitespace.
func SanitizeString(input string, maxLength int) string {
	// Remove control characters (ASCII 0-31 and 127)
	input = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, input)

	// Trim whitespace
	input = strings.TrimSpace(input)

	// Enforce maximum length if specified
	if maxLength > 0 && utf8.RuneCountInString(input) > maxLength {
		runes := []rune(input)
		input = string(runes[:maxLength])
	}

	return input
}
