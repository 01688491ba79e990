package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a business-rule violation surfaced to the caller
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so that errors.Is works against the sentinels below
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// WithDetail returns a copy of the error carrying an extra detail entry
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Code: e.Code, Message: e.Message, Details: details}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return NewDomainError(code, fmt.Sprintf(format, args...))
}

// Error codes
const (
	CodeNotFound              = "NOT_FOUND"
	CodeAlreadyExists         = "ALREADY_EXISTS"
	CodeInvalidInput          = "INVALID_INPUT"
	CodeConcurrencyConflict   = "CONCURRENCY_CONFLICT"
	CodeUnknownUnit           = "UNKNOWN_UNIT"
	CodeInvalidConversion     = "INVALID_CONVERSION"
	CodeInvalidQuantity       = "INVALID_QUANTITY"
	CodeInsufficientStock     = "INSUFFICIENT_STOCK"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeCustodyNotEstablished = "CUSTODY_NOT_ESTABLISHED"
	CodeDoubleApplication     = "DOUBLE_APPLICATION"
	CodeDefaultUnitRequired   = "DEFAULT_UNIT_REQUIRED"
	CodeDataIntegrity         = "DATA_INTEGRITY"
	CodeBatchImmutable        = "BATCH_IMMUTABLE"
	CodeBatchExpired          = "BATCH_EXPIRED"
	CodeUnitInUse             = "UNIT_IN_USE"
)

// Common domain errors
var (
	ErrNotFound              = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists         = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput          = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict   = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrUnknownUnit           = NewDomainError(CodeUnknownUnit, "Unit does not belong to product")
	ErrInvalidConversion     = NewDomainError(CodeInvalidConversion, "Conversion factor must be positive")
	ErrInvalidQuantity       = NewDomainError(CodeInvalidQuantity, "Quantity is invalid")
	ErrInsufficientStock     = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrInvalidTransition     = NewDomainError(CodeInvalidTransition, "Transition not allowed in current state")
	ErrCustodyNotEstablished = NewDomainError(CodeCustodyNotEstablished, "Source holds no custody of this batch")
	ErrDoubleApplication     = NewDomainError(CodeDoubleApplication, "Change has already been applied")
	ErrDefaultUnitRequired   = NewDomainError(CodeDefaultUnitRequired, "Product must keep exactly one default unit")
	ErrDataIntegrity         = NewDomainError(CodeDataIntegrity, "Stored data violates an invariant")
	ErrBatchImmutable        = NewDomainError(CodeBatchImmutable, "Batch has posted stock and cannot be changed")
	ErrBatchExpired          = NewDomainError(CodeBatchExpired, "Batch is expired")
	ErrUnitInUse             = NewDomainError(CodeUnitInUse, "Unit is referenced by requests")
)

// IsDomainError reports whether err carries a DomainError with the given code
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
