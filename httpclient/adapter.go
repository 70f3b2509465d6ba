package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"github.com/kbukum/apicontract/contract"
	"github.com/kbukum/apicontract/logger"
	"github.com/kbukum/apicontract/observability"
	"github.com/kbukum/apicontract/resilience"
)

// Adapter sends contract calls over net/http with auth, TLS, tracing and
// the configured resilience policies.
type Adapter struct {
	config  Config
	client  *http.Client
	log     *logger.Logger
	metrics *observability.Metrics
	newID   func() string

	cb *resilience.CircuitBreaker
	rl *resilience.RateLimiter
	bh *resilience.Bulkhead
}

var _ contract.HTTPClient[*Response] = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger; the service name is added as a field.
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// WithMetrics records call metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// WithTransport replaces the transport. Config.TLS is not applied to it.
func WithTransport(rt http.RoundTripper) Option {
	return func(a *Adapter) { a.client.Transport = rt }
}

// WithRequestIDFunc replaces the uuid request id generator.
func WithRequestIDFunc(fn func() string) Option {
	return func(a *Adapter) { a.newID = fn }
}

// New builds an Adapter from cfg.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}

	a := &Adapter{
		config: cfg,
		client: &http.Client{Transport: transport},
		newID:  uuid.NewString,
	}
	if cfg.CircuitBreaker != nil {
		a.cb = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	if cfg.RateLimiter != nil {
		a.rl = resilience.NewRateLimiter(*cfg.RateLimiter)
	}
	if cfg.Bulkhead != nil {
		a.bh = resilience.NewBulkhead(*cfg.Bulkhead)
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Get("httpclient")
	}
	a.log = a.log.WithFields(logger.Fields(logger.FieldService, cfg.Name))
	return a, nil
}

// Get sends a GET request.
func (a *Adapter) Get(ctx context.Context, url string, opts contract.Options) (*Response, error) {
	return a.call(ctx, http.MethodGet, url, nil, opts)
}

// Delete sends a DELETE request without a body.
func (a *Adapter) Delete(ctx context.Context, url string, opts contract.Options) (*Response, error) {
	return a.call(ctx, http.MethodDelete, url, nil, opts)
}

// Patch sends body as a PATCH request.
func (a *Adapter) Patch(ctx context.Context, url string, body any, opts contract.Options) (*Response, error) {
	return a.call(ctx, http.MethodPatch, url, body, opts)
}

// Post sends body as a POST request.
func (a *Adapter) Post(ctx context.Context, url string, body any, opts contract.Options) (*Response, error) {
	return a.call(ctx, http.MethodPost, url, body, opts)
}

// Put sends body as a PUT request.
func (a *Adapter) Put(ctx context.Context, url string, body any, opts contract.Options) (*Response, error) {
	return a.call(ctx, http.MethodPut, url, body, opts)
}

func (a *Adapter) call(ctx context.Context, method, rawURL string, body any, opts contract.Options) (*Response, error) {
	req, err := a.requestFromOptions(method, rawURL, body, opts)
	if err != nil {
		return nil, err
	}
	return a.Do(ctx, req)
}

func (a *Adapter) requestFromOptions(method, rawURL string, body any, opts contract.Options) (Request, error) {
	co, err := a.parseOptions(opts)
	if err != nil {
		return Request{}, newRequestError(a.config.Name, err)
	}
	return Request{
		Method:  method,
		URL:     rawURL,
		Headers: co.headers,
		Query:   co.query,
		Body:    body,
		Auth:    co.auth,
		Timeout: co.timeout,
	}, nil
}

// Do sends req, retrying per Config.Retry. On an HTTP error status both the
// response and a *Error are returned.
func (a *Adapter) Do(ctx context.Context, req Request) (*Response, error) {
	payload, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, newRequestError(a.config.Name, fmt.Errorf("encode body: %w", err))
	}
	target, err := a.resolveURL(req.URL, req.Query)
	if err != nil {
		return nil, newRequestError(a.config.Name, err)
	}
	requestID := a.requestID(ctx)

	ctx, call := observability.StartCall(ctx, a.metrics, a.config.Name, req.Method, target)
	if requestID != "" {
		call.SetAttributes(attribute.String(observability.AttrRequestID, requestID))
	}

	attempts := 0
	attempt := func(n int) (*Response, error) {
		attempts = n
		if n > 1 {
			call.Retry(ctx, n)
		}
		return guard(ctx, a, func() (*Response, error) {
			return a.send(ctx, req, target, payload, contentType, requestID)
		})
	}

	var resp *Response
	if a.config.Retry != nil {
		resp, err = resilience.Retry(ctx, *a.config.Retry, attempt)
	} else {
		resp, err = attempt(1)
	}

	status := 0
	if resp != nil {
		resp.Attempts = attempts
		status = resp.StatusCode
	}
	call.SetAttributes(attribute.Int(observability.AttrAttempts, attempts))
	call.End(ctx, status, errorClass(err), err)

	fields := logger.Fields(
		logger.FieldMethod, req.Method,
		logger.FieldURL, target,
		logger.FieldStatus, status,
		logger.FieldAttempt, attempts,
	)
	fields = logger.DurationFields(fields, call.Duration())
	if err != nil {
		a.log.WithContext(ctx).Warn("http call failed", logger.ErrorFields(fields, err))
	} else {
		a.log.WithContext(ctx).Debug("http call", fields)
	}
	return resp, err
}

// guard applies the bulkhead, rate limiter and circuit breaker around fn,
// outermost first. Refusals surface as ErrCodeUnavailable errors.
func guard[T any](ctx context.Context, a *Adapter, fn func() (T, error)) (T, error) {
	var result T
	run := func() error {
		var err error
		result, err = fn()
		return err
	}

	if a.cb != nil {
		inner := run
		run = func() error {
			err := a.cb.Execute(inner)
			if errors.Is(err, resilience.ErrCircuitOpen) {
				return newUnavailableError(a.config.Name, err)
			}
			return err
		}
	}
	if a.rl != nil {
		inner := run
		run = func() error {
			if err := a.rl.Wait(ctx); err != nil {
				return newUnavailableError(a.config.Name, fmt.Errorf("%w: %v", resilience.ErrRateLimited, err))
			}
			return inner()
		}
	}
	if a.bh != nil {
		inner := run
		run = func() error {
			err := a.bh.Execute(ctx, inner)
			if errors.Is(err, resilience.ErrBulkheadFull) || errors.Is(err, resilience.ErrBulkheadTimeout) {
				return newUnavailableError(a.config.Name, err)
			}
			return err
		}
	}

	err := run()
	return result, err
}

func (a *Adapter) send(ctx context.Context, req Request, target string, payload []byte, contentType, requestID string) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = a.config.Timeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := a.newHTTPRequest(attemptCtx, req, target, payload, contentType, requestID)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, a.transportError(ctx, attemptCtx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, a.transportError(ctx, attemptCtx, fmt.Errorf("read response body: %w", err))
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		RequestID:  requestID,
	}
	if classified := ClassifyResponse(a.config.Name, resp.StatusCode, resp.Header, body); classified != nil {
		return result, classified
	}
	return result, nil
}

// transportError classifies a failed round trip. A cancelled caller
// context is not retried; an expired attempt timeout is.
func (a *Adapter) transportError(parent, attempt context.Context, err error) *Error {
	switch {
	case parent.Err() != nil:
		e := newTimeoutError(a.config.Name, err)
		e.Retryable = false
		return e
	case attempt.Err() != nil:
		return newTimeoutError(a.config.Name, err)
	default:
		return newConnectionError(a.config.Name, err)
	}
}

func (a *Adapter) newHTTPRequest(ctx context.Context, req Request, target string, payload []byte, contentType, requestID string) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, newRequestError(a.config.Name, err)
	}

	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, vs := range req.Headers {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if payload != nil && contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", a.config.UserAgent)
	}
	if requestID != "" && httpReq.Header.Get(a.config.RequestIDHeader) == "" {
		httpReq.Header.Set(a.config.RequestIDHeader, requestID)
	}

	auth := a.config.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	auth.apply(httpReq)

	observability.InjectHeaders(ctx, propagation.HeaderCarrier(httpReq.Header))
	return httpReq, nil
}

// resolveURL prefixes relative URLs with Config.BaseURL and adds query.
func (a *Adapter) resolveURL(rawURL string, query url.Values) (string, error) {
	target := rawURL
	if a.config.BaseURL != "" && !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		target = strings.TrimRight(a.config.BaseURL, "/") + "/" + strings.TrimLeft(rawURL, "/")
	}
	if len(query) == 0 {
		return target, nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (a *Adapter) requestID(ctx context.Context) string {
	if a.config.RequestIDHeader == "-" {
		return ""
	}
	if id := logger.RequestIDFromContext(ctx); id != "" {
		return id
	}
	return a.newID()
}

// encodeBody renders body once so every attempt can resend it.
func encodeBody(body any) ([]byte, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return v, "", nil
	case string:
		return []byte(v), "text/plain; charset=utf-8", nil
	case *MultipartBody:
		return v.encode()
	case io.Reader:
		data, err := io.ReadAll(v)
		return data, "", err
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return data, "application/json", nil
	}
}

// Name returns the configured service name.
func (a *Adapter) Name() string { return a.config.Name }

// Available reports false while the circuit is open.
func (a *Adapter) Available() bool {
	return a.cb == nil || a.cb.State() != resilience.StateOpen
}

// Close drops idle connections.
func (a *Adapter) Close() {
	a.client.CloseIdleConnections()
}

// Config returns the effective configuration.
func (a *Adapter) Config() Config { return a.config }
