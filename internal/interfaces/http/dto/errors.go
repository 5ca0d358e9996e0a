package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field such as buyer or seller is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"
	ErrCodeValidationLength   = "ERR_VALIDATION_LENGTH"
)

// Resource error codes
const (
	ErrCodeNotFound = "ERR_NOT_FOUND"
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when a row was edited or removed by a concurrent request
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeInvalidState is used when an operation is invalid for the current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"

	// ErrCodeRequestTooLarge is used when the body exceeds http.max_body_size
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
)

// Document error codes
const (
	ErrCodeServiceUnavailable = "ERR_SERVICE_UNAVAILABLE"
	ErrCodeRenderTimeout      = "ERR_RENDER_TIMEOUT"
	ErrCodeRenderFailed       = "ERR_RENDER_FAILED"
	ErrCodeTemplateFailed     = "ERR_TEMPLATE_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,

	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeRenderTimeout:      http.StatusGatewayTimeout,
	ErrCodeRenderFailed:       http.StatusBadGateway,
	ErrCodeTemplateFailed:     http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the API codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"INVALID_STATE":        ErrCodeInvalidState,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"VALIDATION_REQUIRED":  ErrCodeValidationRequired,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
	"SERVICE_UNAVAILABLE":  ErrCodeServiceUnavailable,
	"RENDER_TIMEOUT":       ErrCodeRenderTimeout,
	"RENDER_FAILED":        ErrCodeRenderFailed,
	"INVALID_HTML":         ErrCodeRenderFailed,
	"TEMPLATE_FAILED":      ErrCodeTemplateFailed,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format or unknown pass through unchanged.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
