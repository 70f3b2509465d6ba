package httpclient

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/kbukum/apicontract/errors"
)

// ErrorCode classifies adapter errors.
type ErrorCode int

const (
	ErrCodeTimeout ErrorCode = iota
	ErrCodeConnection
	ErrCodeAuth
	ErrCodeNotFound
	ErrCodeRateLimit
	ErrCodeValidation
	ErrCodeServer
	// ErrCodeRequest marks a request that could not be built or sent.
	ErrCodeRequest
	// ErrCodeUnavailable marks calls refused by a resilience policy.
	ErrCodeUnavailable
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeAuth:
		return "auth"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeRateLimit:
		return "rate_limit"
	case ErrCodeValidation:
		return "validation"
	case ErrCodeServer:
		return "server"
	case ErrCodeRequest:
		return "request"
	case ErrCodeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is a classified adapter failure. It matches the toolkit AppError
// through errors.As.
type Error struct {
	Service    string
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	Body       []byte
	// Delay is the server's Retry-After hint.
	Delay time.Duration
	Err   error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

// Unwrap exposes both the cause and the AppError view.
func (e *Error) Unwrap() []error {
	errs := []error{e.AppError()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// RetryAfter returns the Retry-After hint, zero when absent.
func (e *Error) RetryAfter() time.Duration { return e.Delay }

// AppError converts e into the toolkit error type.
func (e *Error) AppError() *apperrors.AppError {
	service := e.Service
	if service == "" {
		service = "http"
	}
	var app *apperrors.AppError
	switch {
	case e.StatusCode > 0:
		app = apperrors.FromStatus(service, e.StatusCode)
	case e.Code == ErrCodeTimeout:
		app = apperrors.Timeout(service + " request")
	case e.Code == ErrCodeConnection:
		app = apperrors.ConnectionFailed(service)
	case e.Code == ErrCodeUnavailable:
		app = apperrors.ServiceUnavailable(service)
	case e.Code == ErrCodeRateLimit:
		app = apperrors.RateLimited()
	default:
		app = apperrors.InvalidInput("request", e.Message)
	}
	if len(e.Body) > 0 {
		app = app.WithDetail("body", truncate(string(e.Body), 512))
	}
	return app
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func newTimeoutError(service string, err error) *Error {
	return &Error{Service: service, Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
}

func newConnectionError(service string, err error) *Error {
	return &Error{Service: service, Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

func newRequestError(service string, err error) *Error {
	return &Error{Service: service, Code: ErrCodeRequest, Message: err.Error(), Err: err}
}

// newUnavailableError wraps a rejection by the circuit breaker, bulkhead
// or rate limiter. Those are not retried within the same call.
func newUnavailableError(service string, err error) *Error {
	return &Error{Service: service, Code: ErrCodeUnavailable, Message: err.Error(), Err: err}
}

// ClassifyResponse returns nil for 2xx and a typed error otherwise.
func ClassifyResponse(service string, status int, header http.Header, body []byte) *Error {
	if status >= 200 && status < 300 {
		return nil
	}
	e := &Error{
		Service:    service,
		StatusCode: status,
		Message:    http.StatusText(status),
		Body:       body,
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Code = ErrCodeAuth
	case status == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case status == http.StatusTooManyRequests:
		e.Code = ErrCodeRateLimit
		e.Retryable = true
	case status == http.StatusRequestTimeout:
		e.Code = ErrCodeTimeout
		e.Retryable = true
	case status >= 400 && status < 500:
		e.Code = ErrCodeValidation
	case status >= 500:
		e.Code = ErrCodeServer
		e.Retryable = status != http.StatusNotImplemented
	default:
		e.Code = ErrCodeServer
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("HTTP %d", status)
	}
	if e.Retryable {
		e.Delay = parseRetryAfter(header.Get("Retry-After"), time.Now())
	}
	return e
}

// parseRetryAfter reads delay-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

func codeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}

func IsTimeout(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeTimeout
}

func IsConnection(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeConnection
}

func IsAuth(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeAuth
}

func IsNotFound(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeNotFound
}

func IsRateLimit(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeRateLimit
}

func IsServerError(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeServer
}

// IsUnavailable reports a call refused by a resilience policy.
func IsUnavailable(err error) bool {
	c, ok := codeOf(err)
	return ok && c == ErrCodeUnavailable
}

// IsRetryable reports whether err is an adapter error worth retrying.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

func isServiceFailure(err error) bool {
	return IsTimeout(err) || IsConnection(err) || IsServerError(err)
}

// errorClass labels err for metrics.
func errorClass(err error) string {
	if c, ok := codeOf(err); ok {
		return c.String()
	}
	return "unknown"
}
