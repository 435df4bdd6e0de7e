package dto

import "net/http"

// Transport error codes. Domain errors keep their own codes (INVOICE_NOT_FOUND,
// OVERPAYMENT, ...) and are mapped to a status by the same table.
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeLocked              = "ERR_LOCKED"
)

// Business rule and input error codes
const (
	ErrCodeInvalidState   = "ERR_INVALID_STATE"
	ErrCodeBusinessRule   = "ERR_BUSINESS_RULE"
	ErrCodeBadRequest     = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput   = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON    = "ERR_INVALID_JSON"
	ErrCodeRateLimited    = "ERR_RATE_LIMITED"
	ErrCodeFeatureOff     = "ERR_FEATURE_DISABLED"
	ErrCodePayloadTooBig  = "ERR_PAYLOAD_TOO_LARGE"
	ErrCodeServiceOffline = "ERR_SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeLocked:              http.StatusConflict,

	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeInvalidInput:   http.StatusBadRequest,
	ErrCodeInvalidJSON:    http.StatusBadRequest,
	ErrCodeRateLimited:    http.StatusTooManyRequests,
	ErrCodeFeatureOff:     http.StatusForbidden,
	ErrCodePayloadTooBig:  http.StatusRequestEntityTooLarge,
	ErrCodeServiceOffline: http.StatusServiceUnavailable,

	// Ledger
	"INVALID_AMOUNT":          http.StatusBadRequest,
	"INVALID_ALLOCATION":      http.StatusBadRequest,
	"ALLOCATION_MISMATCH":     http.StatusBadRequest,
	"INVALID_DATES":           http.StatusBadRequest,
	"INVALID_NAME":            http.StatusBadRequest,
	"INVALID_INVOICE_NAME":    http.StatusBadRequest,
	"INVALID_SOURCE":          http.StatusBadRequest,
	"INVALID_TENANT":          http.StatusBadRequest,
	"INVALID_STATUS":          http.StatusBadRequest,
	"INVALID_DUE_FILTER":      http.StatusBadRequest,
	"NO_OUTSTANDING_INVOICES": http.StatusUnprocessableEntity,
	"OVERPAYMENT":             http.StatusUnprocessableEntity,
	"INVOICE_ALREADY_PAID":    http.StatusUnprocessableEntity,
	"RETAILER_NOT_FOUND":      http.StatusNotFound,
	"INVOICE_NOT_FOUND":       http.StatusNotFound,
	"PAYMENT_NOT_FOUND":       http.StatusNotFound,
	"RETAILER_HAS_INVOICES":   http.StatusConflict,
	"INVOICE_HAS_PAYMENTS":    http.StatusConflict,

	// Notifications
	"INVALID_NOTIFICATION_TYPE": http.StatusBadRequest,
	"INVALID_MESSAGE":           http.StatusBadRequest,
	"NOTIFICATION_NOT_FOUND":    http.StatusNotFound,

	// Reports
	"PDF_EXPORT_DISABLED": http.StatusNotImplemented,
	"UNSUPPORTED_FORMAT":  http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// GenericErrorCodeMapping maps the generic shared domain codes to their
// transport form
var GenericErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"OPTIMISTIC_LOCK":      ErrCodeConcurrencyConflict,
	"LOCK_NOT_ACQUIRED":    ErrCodeLocked,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a generic domain code to its ERR_ form.
// Specific domain codes and unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := GenericErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
