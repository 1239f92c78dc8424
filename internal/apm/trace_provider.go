// Package apm bootstraps the global OpenTelemetry trace provider.
package apm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/mverab/flasharb/internal/apperror"
)

// Provider selects the span exporter.
type Provider string

// Supported providers.
const (
	OTLPGRPCProvider Provider = "otlp-grpc"
	OTLPHTTPProvider Provider = "otlp-http"
	ZipkinProvider   Provider = "zipkin"
	ConsoleProvider  Provider = "console"
	EmptyProvider    Provider = "none"
)

// Config holds trace bootstrap settings.
type Config struct {
	ServiceName string
	Endpoint    string
	Provider    Provider
}

// TraceProvider is the handle returned to the caller for shutdown.
type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type emptyProvider struct{}

func (emptyProvider) Stop() error { return nil }

// NewTraceProvider installs the global tracer provider and propagators.
// EmptyProvider leaves the otel no-op default in place.
func NewTraceProvider(ctx context.Context, cfg Config) (TraceProvider, error) {
	if cfg.Provider == EmptyProvider || cfg.Provider == "" {
		return emptyProvider{}, nil
	}

	exp, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContextf("trace exporter %q", cfg.Provider),
			apperror.WithCause(err))
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	return &traceProvider{tp}, nil
}

func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Provider {
	case OTLPGRPCProvider:
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpointURL(cfg.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
	case OTLPHTTPProvider:
		return otlptracehttp.New(ctx,
			otlptracehttp.WithEndpointURL(cfg.Endpoint),
		)
	case ZipkinProvider:
		return zipkin.New(cfg.Endpoint)
	case ConsoleProvider:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContextf("unknown trace provider %q", cfg.Provider))
	}
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return o.tp.Shutdown(ctx)
}
