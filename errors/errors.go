package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the error type shared by every package of the module.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the cause and returns e.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges details into e and returns e.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// WithDetail sets one detail and returns e.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an AppError; retryability follows the code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// Wrap returns the AppError in err's chain, or an internal error caused by
// err. Wrap(nil) is nil.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// FromStatus builds the error for a non-2xx response of service.
func FromStatus(service string, status int) *AppError {
	code := CodeForStatus(status)
	return New(code, fmt.Sprintf("%s responded with HTTP %d", service, status), status).
		WithDetail("service", service).
		WithDetail("status", status)
}

func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable, fmt.Sprintf("%s is temporarily unavailable", service), http.StatusServiceUnavailable).
		WithDetail("service", service)
}

func ConnectionFailed(service string) *AppError {
	return New(ErrCodeConnectionFailed, fmt.Sprintf("unable to connect to %s", service), http.StatusServiceUnavailable).
		WithDetail("service", service)
}

func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, fmt.Sprintf("%s timed out", operation), http.StatusGatewayTimeout).
		WithDetail("operation", operation)
}

func RateLimited() *AppError {
	return New(ErrCodeRateLimited, "too many requests", http.StatusTooManyRequests)
}

// NotFound reports a missing resource. id is omitted from details when empty.
func NotFound(resource, id string) *AppError {
	err := New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound).
		WithDetail("resource", resource)
	if id != "" {
		err.WithDetail("id", id)
	}
	return err
}

// AlreadyExists reports a duplicate resource or declaration.
func AlreadyExists(resource string) *AppError {
	return New(ErrCodeAlreadyExists, fmt.Sprintf("%s already exists", resource), http.StatusConflict).
		WithDetail("resource", resource)
}

// UnsupportedMethod reports an HTTP method outside the supported set.
func UnsupportedMethod(method string) *AppError {
	return New(ErrCodeUnsupportedMethod, fmt.Sprintf("method %q is not supported", method), http.StatusMethodNotAllowed).
		WithDetail("method", method)
}

func InvalidInput(field, reason string) *AppError {
	err := New(ErrCodeInvalidInput, fmt.Sprintf("invalid input: %s", reason), http.StatusBadRequest)
	if field != "" {
		err.WithDetail("field", field)
	}
	return err
}

// Validation wraps an aggregated validation message.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

func MissingField(field string) *AppError {
	return New(ErrCodeMissingField, fmt.Sprintf("missing required field: %s", field), http.StatusBadRequest).
		WithDetail("field", field)
}

func InvalidFormat(field, expected string) *AppError {
	return New(ErrCodeInvalidFormat, fmt.Sprintf("invalid format for %s, expected %s", field, expected), http.StatusBadRequest).
		WithDetails(map[string]any{"field": field, "expected_format": expected})
}

func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "authentication required"
	}
	return New(ErrCodeUnauthorized, reason, http.StatusUnauthorized)
}

func Forbidden(reason string) *AppError {
	if reason == "" {
		reason = "access denied"
	}
	return New(ErrCodeForbidden, reason, http.StatusForbidden)
}

func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "unexpected error", http.StatusInternalServerError).WithCause(cause)
}

func ExternalServiceError(service string, cause error) *AppError {
	return New(ErrCodeExternalService, fmt.Sprintf("%s returned an error", service), http.StatusBadGateway).
		WithDetail("service", service).
		WithCause(cause)
}
