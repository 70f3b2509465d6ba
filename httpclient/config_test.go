package httpclient

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kbukum/apicontract/resilience"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{
		Retry:          &resilience.RetryConfig{},
		CircuitBreaker: &resilience.CircuitBreakerConfig{},
		RateLimiter:    &resilience.RateLimiterConfig{},
		Bulkhead:       &resilience.BulkheadConfig{},
	}
	cfg.ApplyDefaults()

	if cfg.Name != "http" || cfg.Timeout != 30*time.Second {
		t.Errorf("unexpected defaults %q/%v", cfg.Name, cfg.Timeout)
	}
	if cfg.QueryKey != "params" || cfg.HeadersKey != "headers" || cfg.RequestIDHeader != "X-Request-ID" {
		t.Errorf("unexpected option keys %+v", cfg)
	}
	if cfg.Retry.RetryIf == nil || cfg.CircuitBreaker.IsFailure == nil {
		t.Error("expected default predicates")
	}
	if cfg.CircuitBreaker.Name != "http" || cfg.RateLimiter.Name != "http" || cfg.Bulkhead.Name != "http" {
		t.Error("policies should inherit the service name")
	}
}

func TestConfig_ApplyDefaultsKeepsValues(t *testing.T) {
	custom := func(error) bool { return false }
	cfg := Config{Name: "billing", Timeout: 2 * time.Second, QueryKey: "query", Retry: &resilience.RetryConfig{RetryIf: custom}}
	cfg.ApplyDefaults()
	if cfg.Name != "billing" || cfg.Timeout != 2*time.Second || cfg.QueryKey != "query" {
		t.Errorf("defaults overwrote values: %+v", cfg)
	}
	if cfg.Retry.RetryIf(errors.New("x")) {
		t.Error("custom RetryIf replaced")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty", Config{}, false},
		{"base url", Config{BaseURL: "https://api.example.com/v1"}, false},
		{"bad base url", Config{BaseURL: "::"}, true},
		{"negative timeout", Config{Timeout: -time.Second}, true},
		{"api key without key", Config{Auth: &AuthConfig{Type: AuthAPIKey}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("wantErr=%v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestAuthConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		auth    *AuthConfig
		wantErr bool
	}{
		{"nil", nil, false},
		{"none", &AuthConfig{}, false},
		{"bearer", BearerAuth("t"), false},
		{"bearer without token", &AuthConfig{Type: AuthBearer}, true},
		{"basic", BasicAuth("u", "p"), false},
		{"basic without user", &AuthConfig{Type: AuthBasic}, true},
		{"api key bad location", &AuthConfig{Type: AuthAPIKey, Key: "k", In: "cookie"}, true},
		{"custom without hook", &AuthConfig{Type: AuthCustom}, true},
		{"unknown", &AuthConfig{Type: "oauth"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.auth.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("wantErr=%v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestAuthConfig_Apply(t *testing.T) {
	tests := []struct {
		name  string
		auth  *AuthConfig
		check func(*testing.T, *http.Request)
	}{
		{"bearer", BearerAuth("tok"), func(t *testing.T, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok" {
				t.Errorf("unexpected %q", r.Header.Get("Authorization"))
			}
		}},
		{"basic", BasicAuth("u", "p"), func(t *testing.T, r *http.Request) {
			if u, p, ok := r.BasicAuth(); !ok || u != "u" || p != "p" {
				t.Error("expected basic auth")
			}
		}},
		{"api key header", APIKeyAuth("k1"), func(t *testing.T, r *http.Request) {
			if r.Header.Get("X-API-Key") != "k1" {
				t.Error("expected X-API-Key")
			}
		}},
		{"api key custom header", APIKeyAuthHeader("k2", "X-Token"), func(t *testing.T, r *http.Request) {
			if r.Header.Get("X-Token") != "k2" {
				t.Error("expected X-Token")
			}
		}},
		{"api key query", APIKeyAuthQuery("k3", "key"), func(t *testing.T, r *http.Request) {
			if r.URL.Query().Get("key") != "k3" || r.URL.Query().Get("page") != "2" {
				t.Errorf("unexpected query %q", r.URL.RawQuery)
			}
		}},
		{"custom", CustomAuth(func(r *http.Request) { r.Header.Set("X-Signed", "yes") }), func(t *testing.T, r *http.Request) {
			if r.Header.Get("X-Signed") != "yes" {
				t.Error("expected custom header")
			}
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://api.local/items?page=2", nil)
			tc.auth.apply(r)
			tc.check(t, r)
		})
	}
}
