package errors

import "net/http"

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Transport and availability errors. These are retryable.
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeConnectionFailed   ErrorCode = "CONNECTION_FAILED"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
	ErrCodeExternalService    ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// Contract and resource errors.
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates a duplicate declaration or resource.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	// ErrCodeUnsupportedMethod indicates an HTTP method outside the supported set.
	ErrCodeUnsupportedMethod ErrorCode = "UNSUPPORTED_METHOD"
)

// Input errors.
const (
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField  ErrorCode = "MISSING_FIELD"
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
)

// Access errors.
const (
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
)

// ErrCodeInternal indicates an unexpected failure.
const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeConnectionFailed:   true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeExternalService:    true,
}

// IsRetryableCode reports whether code denotes a retryable failure.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// CodeForStatus maps a non-2xx HTTP status returned by a remote service to
// an error code.
func CodeForStatus(status int) ErrorCode {
	switch {
	case status == http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case status == http.StatusForbidden:
		return ErrCodeForbidden
	case status == http.StatusNotFound:
		return ErrCodeNotFound
	case status == http.StatusMethodNotAllowed:
		return ErrCodeUnsupportedMethod
	case status == http.StatusConflict:
		return ErrCodeAlreadyExists
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrCodeTimeout
	case status == http.StatusTooManyRequests:
		return ErrCodeRateLimited
	case status == http.StatusServiceUnavailable:
		return ErrCodeServiceUnavailable
	case status >= 400 && status < 500:
		return ErrCodeInvalidInput
	case status >= 500:
		return ErrCodeExternalService
	default:
		return ErrCodeInternal
	}
}
