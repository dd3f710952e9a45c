// Package telemetry wires the gateway's OpenTelemetry tracer and meter
// providers, so a request's full pipeline journey (auth -> authz -> verify
// -> map -> accept) is visible on one trace regardless of which partition
// process emitted which stage.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Config configures the gateway's telemetry providers.
type Config struct {
	ServiceName    string
	ServiceVersion string
	PartitionRole  string
	SampleRate     float64 // 0.0 to 1.0, default 1.0 (sample all)
	Enabled        bool
}

// DefaultConfig returns the gateway's telemetry defaults: every span
// sampled, providers enabled.
func DefaultConfig(partitionRole string) Config {
	return Config{
		ServiceName:    "vorgateway",
		ServiceVersion: "1.0.0",
		PartitionRole:  partitionRole,
		SampleRate:     1.0,
		Enabled:        true,
	}
}

// Provider holds the gateway's configured tracer and meter.
type Provider struct {
	config         Config
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metricReader   *sdkmetric.ManualReader
	tracer         trace.Tracer
	meter          metric.Meter
	logger         *slog.Logger
}

// New builds a Provider. Spans are exported through a slog-backed exporter
// rather than an OTLP collector: the gateway has no external collector
// endpoint named anywhere in its external interfaces, so the exporter
// destination is this process's structured log instead of a fixed wire
// protocol.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	p := &Provider{
		config: cfg,
		logger: slog.Default().With("component", "telemetry", "partition", cfg.PartitionRole),
	}

	if !cfg.Enabled {
		p.logger.InfoContext(ctx, "telemetry disabled")
		return p, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("vorgateway.partition", cfg.PartitionRole),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(newSlogSpanExporter(p.logger)),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(p.tracerProvider)

	p.metricReader = sdkmetric.NewManualReader()
	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(p.metricReader),
	)
	otel.SetMeterProvider(p.meterProvider)

	p.tracer = p.tracerProvider.Tracer("vorgateway")
	p.meter = p.meterProvider.Meter("vorgateway")

	return p, nil
}

// Tracer returns the gateway's configured tracer.
func (p *Provider) Tracer() trace.Tracer {
	if p.tracer == nil {
		return otel.Tracer("vorgateway")
	}
	return p.tracer
}

// Meter returns the gateway's configured meter.
func (p *Provider) Meter() metric.Meter {
	if p.meter == nil {
		return otel.Meter("vorgateway")
	}
	return p.meter
}

// Shutdown flushes and stops the providers, logging any failures rather
// than propagating them — shutdown must proceed regardless of exporter
// health.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			p.logger.ErrorContext(ctx, "failed to shut down tracer provider", "error", err)
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			p.logger.ErrorContext(ctx, "failed to shut down meter provider", "error", err)
		}
	}
	return nil
}

// CollectMetrics gathers the current metric snapshot and logs it; called
// periodically by a caller that wants metrics visible without a collector.
func (p *Provider) CollectMetrics(ctx context.Context) {
	if p.metricReader == nil {
		return
	}
	var data metricdata.ResourceMetrics
	if err := p.metricReader.Collect(ctx, &data); err != nil {
		p.logger.ErrorContext(ctx, "failed to collect metrics", "error", err)
		return
	}
	p.logger.InfoContext(ctx, "metrics snapshot", "scope_count", len(data.ScopeMetrics), "collected_at", time.Now())
}
