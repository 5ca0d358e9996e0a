package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped sentinels and re-created
// errors with the same code compare equal under errors.Is.
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
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrValidation          = NewDomainError("VALIDATION_ERROR", "Validation failed")
	ErrValidationRequired  = NewDomainError("VALIDATION_REQUIRED", "Required field is missing")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrServiceUnavailable  = NewDomainError("SERVICE_UNAVAILABLE", "Service is not available")
)

// NotFound returns a NOT_FOUND error with a resource specific message
func NotFound(message string) *DomainError {
	return NewDomainError(ErrNotFound.Code, message)
}

// Validation returns a VALIDATION_ERROR with a specific message
func Validation(message string) *DomainError {
	return NewDomainError(ErrValidation.Code, message)
}

// Required returns a VALIDATION_REQUIRED error for the named field
func Required(field string) *DomainError {
	return NewDomainError(ErrValidationRequired.Code, field+" is required")
}

// InvalidState returns an INVALID_STATE error with a specific message
func InvalidState(message string) *DomainError {
	return NewDomainError(ErrInvalidState.Code, message)
}

// Unavailable returns a SERVICE_UNAVAILABLE error for a disabled or unreachable feature
func Unavailable(message string) *DomainError {
	return NewDomainError(ErrServiceUnavailable.Code, message)
}
