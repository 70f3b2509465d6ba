package httpclient

import (
	"fmt"
	"time"

	"github.com/kbukum/apicontract/resilience"
	"github.com/kbukum/apicontract/security"
	"github.com/kbukum/apicontract/validation"
	"github.com/kbukum/apicontract/version"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultRequestIDHeader = "X-Request-ID"

	// DefaultQueryKey and DefaultHeadersKey are the contract.Options keys
	// the adapter reads query parameters and headers from.
	DefaultQueryKey   = "params"
	DefaultHeadersKey = "headers"
)

// Config configures an Adapter. Resilience sections are optional; a nil
// section disables that policy.
type Config struct {
	// Name identifies the remote service in logs, spans and errors.
	Name string `yaml:"name" mapstructure:"name"`
	// BaseURL is prepended to relative request URLs.
	BaseURL string        `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	Auth    *AuthConfig         `yaml:"auth" mapstructure:"auth"`
	TLS     *security.TLSConfig `yaml:"tls" mapstructure:"tls"`
	Headers map[string]string   `yaml:"headers" mapstructure:"headers"`

	// QueryKey must match the factory's query parameter key.
	QueryKey   string `yaml:"query_key" mapstructure:"query_key"`
	HeadersKey string `yaml:"headers_key" mapstructure:"headers_key"`
	// UserAgent defaults to "apicontract/<version>".
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	// RequestIDHeader carries the request id; "-" disables it.
	RequestIDHeader string `yaml:"request_id_header" mapstructure:"request_id_header"`

	Retry          *resilience.RetryConfig          `yaml:"retry" mapstructure:"retry"`
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	RateLimiter    *resilience.RateLimiterConfig    `yaml:"rate_limiter" mapstructure:"rate_limiter"`
	Bulkhead       *resilience.BulkheadConfig       `yaml:"bulkhead" mapstructure:"bulkhead"`
}

// ApplyDefaults fills zero-value fields. Unless predicates are set, retries
// repeat retryable errors and only timeouts, connection failures and 5xx
// count against the circuit.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "http"
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.QueryKey == "" {
		c.QueryKey = DefaultQueryKey
	}
	if c.HeadersKey == "" {
		c.HeadersKey = DefaultHeadersKey
	}
	if c.UserAgent == "" {
		c.UserAgent = version.UserAgent("apicontract")
	}
	if c.RequestIDHeader == "" {
		c.RequestIDHeader = defaultRequestIDHeader
	}
	if c.Retry != nil && c.Retry.RetryIf == nil {
		c.Retry.RetryIf = IsRetryable
	}
	if c.CircuitBreaker != nil {
		if c.CircuitBreaker.Name == "" {
			c.CircuitBreaker.Name = c.Name
		}
		if c.CircuitBreaker.IsFailure == nil {
			c.CircuitBreaker.IsFailure = isServiceFailure
		}
	}
	if c.RateLimiter != nil && c.RateLimiter.Name == "" {
		c.RateLimiter.Name = c.Name
	}
	if c.Bulkhead != nil && c.Bulkhead.Name == "" {
		c.Bulkhead.Name = c.Name
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("httpclient.auth: %w", err)
	}
	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("httpclient.tls: %w", err)
	}
	return nil
}

// DefaultRetryConfig retries transport failures, 429 and 5xx responses.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}

func DefaultCircuitBreakerConfig(name string) *resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig(name)
	cfg.IsFailure = isServiceFailure
	return &cfg
}

func DefaultRateLimiterConfig(name string) *resilience.RateLimiterConfig {
	cfg := resilience.DefaultRateLimiterConfig(name)
	return &cfg
}
