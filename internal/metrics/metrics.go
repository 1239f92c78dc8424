// Package metrics bootstraps the global OpenTelemetry meter provider and the
// Prometheus scrape endpoint.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/mverab/flasharb/internal/apperror"
)

// MetricProvider is the handle returned to the caller for shutdown.
type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

// NewMetricProvider installs the global meter provider. With no provider
// options an OTLP gRPC reader pointed at the default endpoint is used.
func NewMetricProvider(ctx context.Context, options ...OptionFn) (MetricProvider, error) {
	var cfg Config
	for _, opt := range options {
		cfg = opt(cfg)
	}

	readers, err := newReaders(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := make([]sdkmetric.Option, 0, len(readers)+1)
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}
	opts = append(opts, sdkmetric.WithResource(
		resource.NewSchemaless(semconv.ServiceNameKey.String(cfg.ServiceName)),
	))

	provider := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(provider)

	return provider, nil
}

func newReaders(ctx context.Context, cfg Config) ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	for _, p := range cfg.Providers {
		switch p.Provider {
		case PrometheusProvider:
			exp, err := prometheus.New()
			if err != nil {
				return nil, apperror.New(apperror.CodeConfigurationError,
					apperror.WithContext("prometheus exporter"), apperror.WithCause(err))
			}
			readers = append(readers, exp)

		case OtelCollector:
			opts := []otlpmetricgrpc.Option{
				otlpmetricgrpc.WithEndpointURL(p.Endpoint),
				otlpmetricgrpc.WithHeaders(p.Headers),
			}
			if p.Insecure {
				opts = append(opts, otlpmetricgrpc.WithInsecure())
			}
			exp, err := otlpmetricgrpc.New(ctx, opts...)
			if err != nil {
				return nil, apperror.New(apperror.CodeConfigurationError,
					apperror.WithContext("otlp metric exporter"), apperror.WithCause(err))
			}
			readers = append(readers, sdkmetric.NewPeriodicReader(exp))
		}
	}

	if len(readers) == 0 {
		exp, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithContext("default otlp metric exporter"), apperror.WithCause(err))
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exp))
	}

	return readers, nil
}

// ServePrometheusMetrics blocks serving /metrics on the given port.
func ServePrometheusMetrics(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}
