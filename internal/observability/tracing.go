package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "egress"

// TracerName is the instrumentation scope used by pipeline spans.
const TracerName = "github.com/verdigris-botanica/egress"

// InitTracing initializes the tracer provider and registers it
// globally. When disabled, the provider records nothing and has no
// exporter attached; spans are cheap no-ops. Exporters, if any, are
// supplied by the caller (tests pass a tracetest in-memory exporter).
func InitTracing(ctx context.Context, enabled bool, exporter sdktrace.SpanExporter) *sdktrace.TracerProvider {
	if !enabled {
		tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.NeverSample()))
		otel.SetTracerProvider(tp)
		return tp
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithSyncer(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp
}

// Tracer returns the pipeline tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
