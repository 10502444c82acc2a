package dto

import (
	"net/http"
	"strings"
)

// Transport level error codes. Domain errors keep their own code.
const (
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeInvalidJSON   = "INVALID_JSON"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeTooLarge      = "PAYLOAD_TOO_LARGE"
	ErrCodeInvalidSig    = "INVALID_SIGNATURE"
	ErrCodeTooManyStream = "MAX_CONNECTIONS_REACHED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes. Codes missing
// here fall back to the suffix and prefix rules in GetHTTPStatus.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:      http.StatusInternalServerError,
	ErrCodeBadRequest:    http.StatusBadRequest,
	ErrCodeValidation:    http.StatusBadRequest,
	ErrCodeInvalidJSON:   http.StatusBadRequest,
	ErrCodeUnauthorized:  http.StatusUnauthorized,
	ErrCodeInvalidSig:    http.StatusUnauthorized,
	ErrCodeForbidden:     http.StatusForbidden,
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeRateLimited:   http.StatusTooManyRequests,
	ErrCodeTooLarge:      http.StatusRequestEntityTooLarge,
	ErrCodeTooManyStream: http.StatusServiceUnavailable,

	// Sessions
	"TOKEN_EXPIRED":     http.StatusUnauthorized,
	"TOKEN_MAX_REFRESH": http.StatusUnauthorized,

	// Input
	"INVALID_INPUT":       http.StatusBadRequest,
	"INVALID_LOCATION_ID": http.StatusBadRequest,
	"INVALID_DATE_RANGE":  http.StatusBadRequest,
	"WEAK_PASSWORD":       http.StatusBadRequest,
	"REASON_REQUIRED":     http.StatusBadRequest,

	// Conflicts
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"VERSION_MISMATCH":     http.StatusConflict,
	"SHIFT_ALREADY_OPEN":   http.StatusConflict,
	"CONFLICT_RESOLVED":    http.StatusConflict,
	"DUPLICATE_ITEM":       http.StatusConflict,

	// Plan and features
	"PLAN_LIMIT_EXCEEDED": http.StatusForbidden,
	"FEATURE_DISABLED":    http.StatusForbidden,

	// Business rules
	"INVALID_STATE":      http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK": http.StatusUnprocessableEntity,

	// Backends that are switched off or unreachable
	"QUOTA_EXCEEDED":            http.StatusTooManyRequests,
	"STORAGE_DISABLED":          http.StatusServiceUnavailable,
	"PDF_DISABLED":              http.StatusServiceUnavailable,
	"PAYMENT_PROVIDER_DISABLED": http.StatusServiceUnavailable,
	"ASSISTANT_UNAVAILABLE":     http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status for an error code. Unlisted codes
// ending in _NOT_FOUND map to 404, INVALID_* codes to 400 and every other
// domain code to 422.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case code == "":
		return http.StatusInternalServerError
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}
