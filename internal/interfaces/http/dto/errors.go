package dto

import (
	"net/http"

	"github.com/erp/pos/internal/domain/shared"
)

// Domain error codes travel to clients unchanged. The codes below are raised
// by the HTTP layer itself.
const (
	ErrCodeInternal             = "INTERNAL_ERROR"
	ErrCodeValidation           = shared.CodeValidation
	ErrCodeBadRequest           = "BAD_REQUEST"
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeUnauthorized         = shared.CodeUnauthorized
	ErrCodeTokenExpired         = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid         = "INVALID_TOKEN"
	ErrCodeRateLimited          = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTooLarge      = "REQUEST_TOO_LARGE"
	ErrCodeTimeout              = "REQUEST_TIMEOUT"
	ErrCodeIdempotencyInFlight  = "IDEMPOTENCY_KEY_IN_USE"
	ErrCodeIdempotencyKeyFormat = "INVALID_IDEMPOTENCY_KEY"
	ErrCodeNotReady             = "NOT_READY"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:           http.StatusBadRequest,
	ErrCodeBadRequest:           http.StatusBadRequest,
	ErrCodeInvalidJSON:          http.StatusBadRequest,
	ErrCodeIdempotencyKeyFormat: http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	shared.CodeNotFound:               http.StatusNotFound,
	shared.CodeAlreadyExists:          http.StatusConflict,
	shared.CodeConcurrencyConflict:    http.StatusConflict,
	shared.CodeInvalidStateTransition: http.StatusConflict,
	shared.CodeNoOpenDrawer:           http.StatusConflict,
	shared.CodeDrawerAlreadyOpen:      http.StatusConflict,
	ErrCodeIdempotencyInFlight:        http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	shared.CodeInsufficientStock:   http.StatusUnprocessableEntity,
	shared.CodeCreditLimitExceeded: http.StatusUnprocessableEntity,
	shared.CodeInsufficientCash:    http.StatusUnprocessableEntity,

	// Ledger faults
	shared.CodeFiscalNumberAllocationFailed: http.StatusServiceUnavailable,
	shared.CodeStockLedgerInconsistent:      http.StatusInternalServerError,

	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeTimeout:         http.StatusGatewayTimeout,
	ErrCodeNotReady:        http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
