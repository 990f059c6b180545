package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Sentinel errors returned by all repositories
var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrInvalidInput   = errors.New("invalid input")
)

// isDuplicateKeyError reports whether err is a unique constraint
// violation. Both Postgres and SQLite wordings are recognized so the
// check works under the in-memory test driver too.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "23505")
}
