// Package observability provides OpenTelemetry-based telemetry for the
// ledger service: OTLP-exported traces plus RED-style metrics for the
// public operations. The core engine stays instrumentation-free; the
// API layer records here.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Config configures the OpenTelemetry providers.
type Config struct {
	ServiceName    string
	ServiceVersion string
	OTLPEndpoint   string // gRPC endpoint, e.g. "localhost:4317"
	Enabled        bool
}

// DefaultConfig returns defaults with telemetry disabled.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "greenledger",
		ServiceVersion: "1.0.0",
		OTLPEndpoint:   "localhost:4317",
	}
}

// Provider manages the trace and metric providers and the ledger's
// instruments.
type Provider struct {
	config         *Config
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	logger         *slog.Logger

	submissions   metric.Int64Counter
	verifications metric.Int64Counter
	tokensMinted  metric.Int64Counter
	opErrors      metric.Int64Counter
	opDuration    metric.Float64Histogram
}

// New creates an observability provider. With Enabled false every
// recording method is a no-op.
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}
	p := &Provider{
		config: config,
		logger: slog.Default().With("component", "observability"),
	}
	if !config.Enabled {
		p.logger.InfoContext(ctx, "observability disabled")
		return p, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("observability: build resource: %w", err)
	}

	traceExp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(config.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: trace exporter: %w", err)
	}
	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(p.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	p.tracer = p.tracerProvider.Tracer(config.ServiceName)

	metricExp, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(config.OTLPEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: metric exporter: %w", err)
	}
	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(p.meterProvider)

	meter := p.meterProvider.Meter(config.ServiceName)
	if err := p.initInstruments(meter); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) initInstruments(meter metric.Meter) error {
	var err error
	p.submissions, err = meter.Int64Counter("ledger.actions.submitted",
		metric.WithDescription("Actions submitted"))
	if err != nil {
		return err
	}
	p.verifications, err = meter.Int64Counter("ledger.actions.verified",
		metric.WithDescription("Actions verified"))
	if err != nil {
		return err
	}
	p.tokensMinted, err = meter.Int64Counter("ledger.tokens.minted",
		metric.WithDescription("Tokens minted as rewards"))
	if err != nil {
		return err
	}
	p.opErrors, err = meter.Int64Counter("ledger.operations.errors",
		metric.WithDescription("Failed operations"))
	if err != nil {
		return err
	}
	p.opDuration, err = meter.Float64Histogram("ledger.operations.duration",
		metric.WithDescription("Operation duration"),
		metric.WithUnit("ms"))
	return err
}

// StartSpan starts a span when tracing is enabled.
func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if p.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return p.tracer.Start(ctx, name)
}

// RecordSubmission counts one submitted action.
func (p *Provider) RecordSubmission(ctx context.Context, actionType string) {
	if p.submissions == nil {
		return
	}
	p.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("action.type", actionType)))
}

// RecordVerification counts one verified action and its minted reward.
func (p *Provider) RecordVerification(ctx context.Context, reward uint64) {
	if p.verifications == nil {
		return
	}
	p.verifications.Add(ctx, 1)
	p.tokensMinted.Add(ctx, int64(reward))
}

// RecordOperation records duration and outcome of one public
// operation.
func (p *Provider) RecordOperation(ctx context.Context, name string, d time.Duration, err error) {
	if p.opDuration == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("operation", name))
	p.opDuration.Record(ctx, float64(d.Milliseconds()), attrs)
	if err != nil {
		p.opErrors.Add(ctx, 1, attrs)
	}
}

// Shutdown flushes and stops the providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var firstErr error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
