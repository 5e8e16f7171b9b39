// Package telemetry provides the OpenTelemetry-backed implementation of the
// framework's metrics and tracing contracts. Initialize it once from the
// robot program's main; every framework component then emits metrics through
// core.MetricsRegistry without importing this package.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/itsneelabh/rovermind/core"
)

// OTelProvider implements core.Telemetry with OpenTelemetry. It manages a
// tracer and a meter, exporting traces via OTLP/gRPC (or stdout in
// development mode) and serving metric instruments to the registry.
type OTelProvider struct {
	tracer         trace.Tracer
	meter          metric.Meter
	traceProvider  *sdktrace.TracerProvider
	metricProvider *sdkmetric.MeterProvider
	shutdownOnce   sync.Once
}

// ProviderOptions configures NewOTelProvider.
type ProviderOptions struct {
	// ServiceName identifies this robot program in exported telemetry.
	ServiceName string

	// Endpoint is the OTLP/gRPC receiver address (typically port 4317).
	// Ignored when Stdout is true.
	Endpoint string

	// Stdout exports traces to stdout instead of OTLP; used in development
	// mode and simulation.
	Stdout bool

	// SamplingRate in [0, 1] controls trace sampling.
	SamplingRate float64

	// MetricReader overrides the meter provider's reader; tests pass a
	// manual reader to collect instruments synchronously.
	MetricReader sdkmetric.Reader
}

// NewOTelProvider creates the telemetry pipeline: exporters, batching
// providers, and the global otel registrations.
func NewOTelProvider(ctx context.Context, opts ProviderOptions) (*OTelProvider, error) {
	if opts.ServiceName == "" {
		return nil, fmt.Errorf("service name cannot be empty")
	}
	if opts.SamplingRate <= 0 {
		opts.SamplingRate = 1.0
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(opts.ServiceName),
	)

	var traceExporter sdktrace.SpanExporter
	var err error
	if opts.Stdout {
		traceExporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout trace exporter: %w", err)
		}
	} else {
		endpoint := opts.Endpoint
		if endpoint == "" {
			endpoint = "localhost:4317"
		}
		traceExporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter for endpoint %s: %w", endpoint, err)
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(opts.SamplingRate)),
	)

	meterOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if opts.MetricReader != nil {
		meterOpts = append(meterOpts, sdkmetric.WithReader(opts.MetricReader))
	}
	mp := sdkmetric.NewMeterProvider(meterOpts...)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return &OTelProvider{
		tracer:         tp.Tracer("rovermind-telemetry"),
		meter:          mp.Meter("rovermind-telemetry"),
		traceProvider:  tp,
		metricProvider: mp,
	}, nil
}

// StartSpan implements core.Telemetry.
func (o *OTelProvider) StartSpan(ctx context.Context, name string) (context.Context, core.Span) {
	ctx, span := o.tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

// RecordMetric implements core.Telemetry by recording a histogram sample.
func (o *OTelProvider) RecordMetric(name string, value float64, labels map[string]string) {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	if h, err := o.meter.Float64Histogram(name); err == nil {
		h.Record(context.Background(), value, metric.WithAttributes(attrs...))
	}
}

// Meter exposes the provider's meter so the registry can build instruments.
func (o *OTelProvider) Meter() metric.Meter {
	return o.meter
}

// Shutdown flushes and stops the exporters. Safe to call more than once.
func (o *OTelProvider) Shutdown(ctx context.Context) error {
	var err error
	o.shutdownOnce.Do(func() {
		if traceErr := o.traceProvider.Shutdown(ctx); traceErr != nil {
			err = traceErr
		}
		if metricErr := o.metricProvider.Shutdown(ctx); metricErr != nil && err == nil {
			err = metricErr
		}
	})
	return err
}

// otelSpan adapts a trace.Span to core.Span.
type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() { s.span.End() }

func (s *otelSpan) SetAttribute(key string, value interface{}) {
	s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", value)))
}

func (s *otelSpan) RecordError(err error) {
	s.span.RecordError(err)
}
