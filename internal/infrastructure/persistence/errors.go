package persistence

import (
	"errors"
	"strings"

	"github.com/clinicstock/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps driver errors onto domain errors
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if isDuplicateKey(err) {
		return shared.ErrAlreadyExists
	}
	return err
}

// isDuplicateKey recognises unique violations from postgres and sqlite,
// with or without gorm's TranslateError enabled
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
