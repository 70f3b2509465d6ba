package httpclient

import (
	"errors"
	"net/http"
	"testing"
	"time"

	apperrors "github.com/kbukum/apicontract/errors"
)

func TestClassifyResponse(t *testing.T) {
	tests := []struct {
		status    int
		code      ErrorCode
		retryable bool
		appCode   apperrors.ErrorCode
	}{
		{401, ErrCodeAuth, false, apperrors.ErrCodeUnauthorized},
		{403, ErrCodeAuth, false, apperrors.ErrCodeForbidden},
		{404, ErrCodeNotFound, false, apperrors.ErrCodeNotFound},
		{408, ErrCodeTimeout, true, apperrors.ErrCodeTimeout},
		{409, ErrCodeValidation, false, apperrors.ErrCodeAlreadyExists},
		{422, ErrCodeValidation, false, apperrors.ErrCodeInvalidInput},
		{429, ErrCodeRateLimit, true, apperrors.ErrCodeRateLimited},
		{500, ErrCodeServer, true, apperrors.ErrCodeExternalService},
		{501, ErrCodeServer, false, apperrors.ErrCodeExternalService},
		{503, ErrCodeServer, true, apperrors.ErrCodeServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			e := ClassifyResponse("svc", tc.status, http.Header{}, nil)
			if e == nil {
				t.Fatal("expected error")
			}
			if e.Code != tc.code || e.Retryable != tc.retryable {
				t.Errorf("expected %s/%v, got %s/%v", tc.code, tc.retryable, e.Code, e.Retryable)
			}
			app, ok := apperrors.AsAppError(e)
			if !ok || app.Code != tc.appCode || app.HTTPStatus != tc.status {
				t.Errorf("expected %s with status %d, got %+v", tc.appCode, tc.status, app)
			}
		})
	}

	if ClassifyResponse("svc", 204, nil, nil) != nil {
		t.Error("2xx must not classify as error")
	}
}

func TestClassifyResponse_RetryAfter(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "7")
	e := ClassifyResponse("svc", 429, h, nil)
	if e.RetryAfter() != 7*time.Second {
		t.Errorf("expected 7s hint, got %v", e.RetryAfter())
	}

	e = ClassifyResponse("svc", 404, h, nil)
	if e.RetryAfter() != 0 {
		t.Error("non-retryable errors carry no hint")
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := map[string]time.Duration{
		"":     0,
		"0":    0,
		"-3":   0,
		"120":  2 * time.Minute,
		"soon": 0,
		now.Add(30 * time.Second).Format(http.TimeFormat): 30 * time.Second,
		now.Add(-time.Hour).Format(http.TimeFormat):       0,
	}
	for in, want := range tests {
		if got := parseRetryAfter(in, now); got != want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	e := newConnectionError("users-api", cause)

	if !errors.Is(e, cause) {
		t.Error("expected cause in chain")
	}
	app, ok := apperrors.AsAppError(e)
	if !ok || app.Code != apperrors.ErrCodeConnectionFailed {
		t.Errorf("expected CONNECTION_FAILED, got %+v", app)
	}
	if e.Error() != "httpclient: connection: dial tcp: refused" {
		t.Errorf("unexpected message %q", e.Error())
	}
}

func TestError_AppErrorBodyDetail(t *testing.T) {
	body := make([]byte, 600)
	for i := range body {
		body[i] = 'x'
	}
	app := ClassifyResponse("svc", 500, http.Header{}, body).AppError()
	detail, _ := app.Details["body"].(string)
	if len(detail) != 515 {
		t.Errorf("expected truncated body detail, got %d bytes", len(detail))
	}
}

func TestErrorPredicates(t *testing.T) {
	timeout := newTimeoutError("s", errors.New("t"))
	unavailable := newUnavailableError("s", errors.New("open"))
	server := ClassifyResponse("s", 502, http.Header{}, nil)

	if !IsTimeout(timeout) || IsConnection(timeout) {
		t.Error("timeout predicates")
	}
	if !IsUnavailable(unavailable) || IsRetryable(unavailable) {
		t.Error("unavailable errors are not retried")
	}
	if !IsServerError(server) || !isServiceFailure(server) {
		t.Error("server predicates")
	}
	if isServiceFailure(ClassifyResponse("s", 429, http.Header{}, nil)) {
		t.Error("rate limiting is not a service failure")
	}
	if IsRetryable(errors.New("plain")) || errorClass(errors.New("plain")) != "unknown" {
		t.Error("plain errors are unknown and not retryable")
	}
	if errorClass(server) != "server" {
		t.Errorf("unexpected class %q", errorClass(server))
	}
}
