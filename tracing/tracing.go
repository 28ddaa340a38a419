// Package tracing installs the global OpenTelemetry tracer provider that
// the store and persist spans are reported through.
package tracing

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const ServiceName = "statesync"

type Options struct {
	// Endpoint is an OTLP/HTTP url such as http://localhost:4318. Tracing is
	// off while it is empty.
	Endpoint string
	// SampleRatio of root spans kept, 0 keeps none and 1 keeps all.
	SampleRatio float64
}

// Setup registers a batching OTLP tracer provider globally. The returned
// shutdown flushes pending spans and is a no-op when tracing is off.
func Setup(ctx context.Context, options Options) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if options.Endpoint == "" {
		return noop, nil
	}
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(options.Endpoint))
	if err != nil {
		return noop, errors.WithMessage(err, "failed to create otlp exporter")
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(ServiceName)))
	if err != nil {
		return noop, errors.WithMessage(err, "failed to describe tracing resource")
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(options.SampleRatio))),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return provider.Shutdown, nil
}
