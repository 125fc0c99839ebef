// Package tracing wraps OpenTelemetry span creation so call sites stay terse.
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/laurelqa/laurel/pkg/tracing/exporters"
)

const tracerName = "github.com/laurelqa/laurel"

// Config selects and configures the span exporter.
type Config struct {
	ServiceName string

	// Exporter is "otlp", "console", or "none". A disabled exporter still
	// installs a provider so span propagation through echo middleware works.
	Exporter string

	// OTLP collector settings, used when Exporter is "otlp".
	Endpoint string
	Protocol string
	Insecure bool
	Timeout  time.Duration
}

// Init installs a tracer provider with a config-selected exporter and returns
// its shutdown func.
func Init(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.Exporter {
	case "otlp":
		exporter, err = exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.Endpoint,
			Protocol: cfg.Protocol,
			Insecure: cfg.Insecure,
			Timeout:  cfg.Timeout,
		})
	case "console":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "", "none":
		// provider only, no export
	default:
		err = fmt.Errorf("unsupported tracing exporter: %s (use 'otlp', 'console', or 'none')", cfg.Exporter)
	}
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
	)

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

// StartSpan starts a span on the global tracer.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name)
}
