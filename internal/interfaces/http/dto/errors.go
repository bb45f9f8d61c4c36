package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidRange is used when a date range is empty or inverted
	ErrCodeInvalidRange = "ERR_INVALID_RANGE"
	// ErrCodeInvalidParameter is used for out-of-range report parameters
	ErrCodeInvalidParameter = "ERR_INVALID_PARAMETER"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource or route is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Access error codes
const (
	// ErrCodeForbidden is used when the client address is not allowed
	ErrCodeForbidden = "ERR_FORBIDDEN"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// Upstream error codes
const (
	// ErrCodeUpstreamFetch is used when the record store cannot be read
	ErrCodeUpstreamFetch = "ERR_UPSTREAM_FETCH"
	// ErrCodeCanceled is used when the client went away before the report finished
	ErrCodeCanceled = "ERR_CANCELED"
)

// StatusClientClosedRequest is the nginx convention for requests abandoned
// by the client.
const StatusClientClosedRequest = 499

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInvalidInput:     http.StatusBadRequest,
	ErrCodeInvalidRange:     http.StatusBadRequest,
	ErrCodeInvalidParameter: http.StatusBadRequest,

	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeInvalidState: http.StatusUnprocessableEntity,

	ErrCodeForbidden:   http.StatusForbidden,
	ErrCodeRateLimited: http.StatusTooManyRequests,

	ErrCodeUpstreamFetch: http.StatusBadGateway,
	ErrCodeCanceled:      StatusClientClosedRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"INVALID_STATE":         ErrCodeInvalidState,
	"INVALID_RANGE":         ErrCodeInvalidRange,
	"INVALID_PARAMETER":     ErrCodeInvalidParameter,
	"UPSTREAM_FETCH_FAILED": ErrCodeUpstreamFetch,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
