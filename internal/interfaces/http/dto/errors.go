package dto

import (
	"net/http"

	"github.com/clinicstock/backend/internal/domain/shared"
)

// Transport-level error codes. Domain errors keep the code they were raised with.
const (
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeDuplicateRequest = "DUPLICATE_REQUEST"
	ErrCodeRequestTooLarge  = "REQUEST_TOO_LARGE"
	ErrCodeRateLimited      = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeUnauthorized:     http.StatusUnauthorized,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	ErrCodeDuplicateRequest: http.StatusConflict,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:      http.StatusTooManyRequests,

	// Input errors -> 400
	shared.CodeInvalidInput:        http.StatusBadRequest,
	shared.CodeUnknownUnit:         http.StatusBadRequest,
	shared.CodeInvalidConversion:   http.StatusBadRequest,
	shared.CodeInvalidQuantity:     http.StatusBadRequest,
	shared.CodeDefaultUnitRequired: http.StatusBadRequest,

	shared.CodeNotFound: http.StatusNotFound,

	// Conflicts -> 409
	shared.CodeAlreadyExists:       http.StatusConflict,
	shared.CodeConcurrencyConflict: http.StatusConflict,
	shared.CodeInvalidTransition:   http.StatusConflict,
	shared.CodeDoubleApplication:   http.StatusConflict,
	shared.CodeBatchImmutable:      http.StatusConflict,
	shared.CodeUnitInUse:           http.StatusConflict,

	// Business rules -> 422
	shared.CodeInsufficientStock:     http.StatusUnprocessableEntity,
	shared.CodeCustodyNotEstablished: http.StatusUnprocessableEntity,
	shared.CodeBatchExpired:          http.StatusUnprocessableEntity,

	shared.CodeDataIntegrity: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes answer 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
