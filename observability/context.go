package observability

import (
	"context"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Call tracks one outbound HTTP call: its span and its metrics. Metrics
// may be nil.
type Call struct {
	Client  string
	Method  string
	start   time.Time
	span    trace.Span
	metrics *Metrics
}

// StartCall opens a client span for method and rawURL and counts the call
// as active.
func StartCall(ctx context.Context, metrics *Metrics, client, method, rawURL string) (context.Context, *Call) {
	return startCall(ctx, SpanHTTPRequest, metrics, client, method, rawURL)
}

// StartStreamCall is StartCall for a streaming response; the span ends
// once the stream is open.
func StartStreamCall(ctx context.Context, metrics *Metrics, client, method, rawURL string) (context.Context, *Call) {
	return startCall(ctx, SpanHTTPStream, metrics, client, method, rawURL)
}

func startCall(ctx context.Context, name string, metrics *Metrics, client, method, rawURL string) (context.Context, *Call) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrURLFull, rawURL),
	}
	if client != "" {
		attrs = append(attrs, attribute.String(AttrClientName, client))
	}
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		attrs = append(attrs, attribute.String(AttrServerAddress, u.Hostname()))
	}

	ctx, span := StartSpan(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	if metrics != nil {
		metrics.RecordCallStart(ctx)
	}
	return ctx, &Call{Client: client, Method: method, start: time.Now(), span: span, metrics: metrics}
}

// SetAttributes adds attributes to the call span.
func (c *Call) SetAttributes(kv ...attribute.KeyValue) {
	c.span.SetAttributes(kv...)
}

// Retry records a retried attempt.
func (c *Call) Retry(ctx context.Context, attempt int) {
	c.span.AddEvent("retry", trace.WithAttributes(attribute.Int("attempt", attempt)))
	if c.metrics != nil {
		c.metrics.RecordRetry(ctx, c.Client, c.Method)
	}
}

// End closes the span and records the outcome. status is 0 when no
// response arrived; class names the error kind when err is set.
func (c *Call) End(ctx context.Context, status int, class string, err error) {
	if status > 0 {
		c.span.SetAttributes(attribute.Int(AttrHTTPStatusCode, status))
	}
	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, err.Error())
	}
	c.span.End()

	if c.metrics != nil {
		c.metrics.RecordCallEnd(ctx, c.Client, c.Method, status, c.Duration())
		if err != nil {
			c.metrics.RecordError(ctx, c.Client, class)
		}
	}
}

// Duration returns the time since the call started.
func (c *Call) Duration() time.Duration {
	return time.Since(c.start)
}
