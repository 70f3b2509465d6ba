package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/apicontract/logger"
)

// MeterConfig configures OTLP metric export.
type MeterConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	ServiceName    string        `yaml:"service_name" mapstructure:"service_name"`
	ServiceVersion string        `yaml:"service_version" mapstructure:"service_version"`
	Environment    string        `yaml:"environment" mapstructure:"environment"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval       time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig targets a local collector with a 15s export interval.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter installs a global meter provider exporting over OTLP HTTP.
func InitMeter(ctx context.Context, cfg *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.WithComponent("observability").Info("meter initialized", logger.Fields(
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns the module meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics holds the instruments recorded for outbound contract calls.
type Metrics struct {
	callTotal    metric.Int64Counter
	callDuration metric.Float64Histogram
	callActive   metric.Int64UpDownCounter
	retryTotal   metric.Int64Counter
	errorTotal   metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	callTotal, err := meter.Int64Counter("http.client.calls",
		metric.WithDescription("Completed outbound calls"))
	if err != nil {
		return nil, fmt.Errorf("creating http.client.calls counter: %w", err)
	}

	callDuration, err := meter.Float64Histogram("http.client.duration",
		metric.WithDescription("Duration of outbound calls"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating http.client.duration histogram: %w", err)
	}

	callActive, err := meter.Int64UpDownCounter("http.client.active",
		metric.WithDescription("Outbound calls in flight"))
	if err != nil {
		return nil, fmt.Errorf("creating http.client.active counter: %w", err)
	}

	retryTotal, err := meter.Int64Counter("http.client.retries",
		metric.WithDescription("Retried attempts of outbound calls"))
	if err != nil {
		return nil, fmt.Errorf("creating http.client.retries counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("http.client.errors",
		metric.WithDescription("Failed outbound calls by error class"))
	if err != nil {
		return nil, fmt.Errorf("creating http.client.errors counter: %w", err)
	}

	return &Metrics{
		callTotal:    callTotal,
		callDuration: callDuration,
		callActive:   callActive,
		retryTotal:   retryTotal,
		errorTotal:   errorTotal,
	}, nil
}

// RecordCallStart counts a call in flight.
func (m *Metrics) RecordCallStart(ctx context.Context) {
	m.callActive.Add(ctx, 1)
}

// RecordCallEnd records a finished call. status is the HTTP status, or 0
// when no response arrived.
func (m *Metrics) RecordCallEnd(ctx context.Context, client, method string, status int, duration time.Duration) {
	m.callActive.Add(ctx, -1)
	m.callTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client", client),
		attribute.String("method", method),
		attribute.Int("status", status),
	))
	m.callDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("client", client),
		attribute.String("method", method),
	))
}

// RecordRetry counts one retried attempt.
func (m *Metrics) RecordRetry(ctx context.Context, client, method string) {
	m.retryTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client", client),
		attribute.String("method", method),
	))
}

// RecordError counts a failed call by error class.
func (m *Metrics) RecordError(ctx context.Context, client, class string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client", client),
		attribute.String("class", class),
	))
}
