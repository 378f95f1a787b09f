package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped copies still compare
// with errors.Is against the package sentinels.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound               = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists          = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrMissingTenantContext   = NewDomainError("MISSING_TENANT_CONTEXT", "No company context available and none was provided")
	ErrInactiveTenant         = NewDomainError("INACTIVE_TENANT", "Operations cannot be performed for an inactive or suspended company")
	ErrValidationFailed       = NewDomainError("VALIDATION_FAILED", "Field validation failed")
	ErrConcurrentModification = NewDomainError("CONCURRENT_MODIFICATION", "Record was modified by another process; reload and retry")
)

// ValidationError carries the failing field alongside the reason.
// It matches ErrValidationFailed under errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// Is reports whether target is the validation sentinel
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// NewValidationError creates a field-level validation error
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
