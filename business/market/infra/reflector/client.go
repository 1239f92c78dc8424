// Package reflector implements the PriceOracle port against a Reflector-style
// HTTP price feed.
package reflector

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mverab/flasharb/business/market/domain"
	"github.com/mverab/flasharb/internal/apperror"
	"github.com/mverab/flasharb/internal/cache"
	"github.com/mverab/flasharb/internal/circuitbreaker"
	"github.com/mverab/flasharb/internal/fixedpoint"
	"github.com/mverab/flasharb/internal/httpclient"
	"github.com/mverab/flasharb/internal/logger"
)

const (
	tracerName = "market.reflector"
	meterName  = "market.reflector"
)

// Config holds reflector client configuration.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// DefaultConfig returns sensible defaults for the given endpoint.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:  baseURL,
		Timeout:  5 * time.Second,
		CacheTTL: 10 * time.Second,
	}
}

// priceResponse mirrors the feed's price payload. Prices arrive as a decimal
// string plus a unix timestamp.
type priceResponse struct {
	Asset     string `json:"asset"`
	Price     string `json:"price"`
	Timestamp int64  `json:"timestamp"`
}

type twapResponse struct {
	Asset   string `json:"asset"`
	Periods int    `json:"periods"`
	Price   string `json:"price"`
}

type clientMetrics struct {
	fetches     metric.Int64Counter
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
}

// Client fetches reference prices over HTTP with caching and a circuit
// breaker around the transport.
type Client struct {
	config Config
	http   httpclient.Client
	logger logger.LoggerInterface

	priceCache *cache.Cache[domain.Asset, domain.PriceQuote]
	cb         *circuitbreaker.CircuitBreaker[*priceResponse]

	tracer  trace.Tracer
	metrics *clientMetrics
}

// New creates a reflector client.
func New(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("reflector base url is required"))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Second
	}

	httpClient, err := httpclient.NewInstrumentedClient(
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithProviderName("reflector"),
		httpclient.WithRequestTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("init http client: %w", err)
	}

	c := &Client{
		config:     cfg,
		http:       httpClient,
		logger:     log,
		priceCache: cache.New[domain.Asset, domain.PriceQuote](5 * time.Minute),
		cb:         circuitbreaker.New[*priceResponse](circuitbreaker.DefaultConfig("reflector")),
		tracer:     otel.Tracer(tracerName),
	}

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return c, nil
}

func (c *Client) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &clientMetrics{}

	c.metrics.fetches, err = meter.Int64Counter(
		"oracle_price_fetches_total",
		metric.WithDescription("Total oracle price fetch attempts"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	c.metrics.cacheHits, err = meter.Int64Counter(
		"oracle_cache_hits_total",
		metric.WithDescription("Oracle price cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	c.metrics.cacheMisses, err = meter.Int64Counter(
		"oracle_cache_misses_total",
		metric.WithDescription("Oracle price cache misses"),
		metric.WithUnit("{miss}"),
	)
	return err
}

// Price implements app.PriceOracle.
func (c *Client) Price(ctx context.Context, asset domain.Asset) (domain.PriceQuote, error) {
	ctx, span := c.tracer.Start(ctx, "reflector.price",
		trace.WithAttributes(attribute.String("asset", asset.String())),
	)
	defer span.End()

	if quote, found := c.priceCache.Get(ctx, asset); found {
		c.metrics.cacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		return quote, nil
	}

	c.metrics.cacheMisses.Add(ctx, 1)
	c.metrics.fetches.Add(ctx, 1)

	resp, err := c.cb.Execute(func() (*priceResponse, error) {
		var out priceResponse
		httpResp, err := c.http.NewRequest().
			SetResult(&out).
			Get(ctx, fmt.Sprintf("/price/%s", asset))
		if err != nil {
			return nil, err
		}
		if httpResp.IsError() {
			return nil, fmt.Errorf("reflector returned %s", httpResp.Status)
		}
		return &out, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		if apperror.IsCode(err, apperror.CodeCircuitOpen) {
			return domain.PriceQuote{}, err
		}
		return domain.PriceQuote{}, apperror.New(apperror.CodeProviderFailure,
			apperror.WithContextf("fetch oracle price for %s", asset),
			apperror.WithCause(err))
	}

	price, err := fixedpoint.Parse(resp.Price)
	if err != nil {
		span.RecordError(err)
		return domain.PriceQuote{}, apperror.New(apperror.CodeProviderFailure,
			apperror.WithContextf("malformed oracle price %q", resp.Price),
			apperror.WithCause(err))
	}

	quote := domain.PriceQuote{
		Asset:     asset,
		Price:     price,
		Timestamp: time.Unix(resp.Timestamp, 0),
	}

	c.priceCache.Set(ctx, asset, quote, c.config.CacheTTL)

	span.SetAttributes(attribute.String("price", price.String()))
	span.SetStatus(codes.Ok, "fetched")

	return quote, nil
}

// TWAP implements app.PriceOracle.
func (c *Client) TWAP(ctx context.Context, asset domain.Asset, periods int) (fixedpoint.Value, error) {
	ctx, span := c.tracer.Start(ctx, "reflector.twap",
		trace.WithAttributes(
			attribute.String("asset", asset.String()),
			attribute.Int("periods", periods),
		),
	)
	defer span.End()

	var out twapResponse
	resp, err := c.http.NewRequest().
		SetResult(&out).
		SetQueryParam("periods", fmt.Sprintf("%d", periods)).
		Get(ctx, fmt.Sprintf("/twap/%s", asset))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return fixedpoint.Zero(), apperror.New(apperror.CodeProviderFailure,
			apperror.WithContextf("fetch twap for %s", asset),
			apperror.WithCause(err))
	}
	if resp.IsError() {
		span.SetStatus(codes.Error, resp.Status)
		return fixedpoint.Zero(), apperror.New(apperror.CodeProviderFailure,
			apperror.WithContextf("reflector returned %s", resp.Status))
	}

	price, err := fixedpoint.Parse(out.Price)
	if err != nil {
		return fixedpoint.Zero(), apperror.New(apperror.CodeProviderFailure,
			apperror.WithContextf("malformed twap %q", out.Price),
			apperror.WithCause(err))
	}

	span.SetStatus(codes.Ok, "fetched")
	return price, nil
}

// Healthy reports whether the transport breaker is closed.
func (c *Client) Healthy() bool {
	return c.cb.Healthy()
}

// Close releases the price cache.
func (c *Client) Close() error {
	c.priceCache.Close()
	return nil
}
