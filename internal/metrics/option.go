package metrics

// Provider selects a metric reader backend.
type Provider string

// Supported providers.
const (
	PrometheusProvider Provider = "prometheus"
	OtelCollector      Provider = "otel-collector"
)

// Config holds meter bootstrap settings.
type Config struct {
	ServiceName string
	Providers   []ProviderCfg
}

// ProviderCfg configures one metric reader.
type ProviderCfg struct {
	Provider Provider
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// OptionFn mutates the bootstrap config.
type OptionFn func(Config) Config

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) OptionFn {
	return func(cfg Config) Config {
		cfg.ServiceName = name
		return cfg
	}
}

// WithProviderConfig adds a metric reader.
func WithProviderConfig(p ProviderCfg) OptionFn {
	return func(cfg Config) Config {
		cfg.Providers = append(cfg.Providers, p)
		return cfg
	}
}

// NewOtelCollectorConfig builds an OTLP gRPC reader config.
func NewOtelCollectorConfig(endpoint string, headers map[string]string, insecure bool) ProviderCfg {
	return ProviderCfg{
		Provider: OtelCollector,
		Endpoint: endpoint,
		Headers:  headers,
		Insecure: insecure,
	}
}
