package shared

import (
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code.
// This lets errors.Is(err, shared.ErrInsufficientStock) match errors that carry details.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error with an additional detail entry
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
	CodeNotFound                     = "NOT_FOUND"
	CodeAlreadyExists                = "ALREADY_EXISTS"
	CodeValidation                   = "VALIDATION_ERROR"
	CodeConcurrencyConflict          = "CONCURRENCY_CONFLICT"
	CodeUnauthorized                 = "UNAUTHORIZED"
	CodeInvalidStateTransition       = "INVALID_STATE_TRANSITION"
	CodeInsufficientStock            = "INSUFFICIENT_STOCK"
	CodeCreditLimitExceeded          = "CREDIT_LIMIT_EXCEEDED"
	CodeNoOpenDrawer                 = "NO_OPEN_DRAWER"
	CodeDrawerAlreadyOpen            = "DRAWER_ALREADY_OPEN"
	CodeFiscalNumberAllocationFailed = "FISCAL_NUMBER_ALLOCATION_FAILED"
	CodeInsufficientCash             = "INSUFFICIENT_CASH"
	CodeStockLedgerInconsistent      = "STOCK_LEDGER_INCONSISTENT"
)

// Common domain errors
var (
	ErrNotFound                     = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists                = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrValidation                   = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConcurrencyConflict          = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrUnauthorized                 = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrInvalidStateTransition       = NewDomainError(CodeInvalidStateTransition, "Operation not allowed in current state")
	ErrInsufficientStock            = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrCreditLimitExceeded          = NewDomainError(CodeCreditLimitExceeded, "Credit limit exceeded")
	ErrNoOpenDrawer                 = NewDomainError(CodeNoOpenDrawer, "No open cash drawer session")
	ErrDrawerAlreadyOpen            = NewDomainError(CodeDrawerAlreadyOpen, "A cash drawer session is already open")
	ErrFiscalNumberAllocationFailed = NewDomainError(CodeFiscalNumberAllocationFailed, "Fiscal number could not be allocated")
	ErrInsufficientCash             = NewDomainError(CodeInsufficientCash, "Insufficient cash in drawer")
	ErrStockLedgerInconsistent      = NewDomainError(CodeStockLedgerInconsistent, "Stock ledger is inconsistent")
)

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *DomainError {
	return NewDomainError(CodeValidation, message).WithDetail("field", field)
}

// NewInvalidStateTransitionError creates an error for a rejected state machine transition
func NewInvalidStateTransitionError(entity, from, operation string) *DomainError {
	return NewDomainErrorf(CodeInvalidStateTransition, "Cannot %s %s in status %s", operation, entity, from).
		WithDetail("entity", entity).
		WithDetail("from", from).
		WithDetail("operation", operation)
}
