package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mverab/flasharb/business/market/domain"
	"github.com/mverab/flasharb/internal/apperror"
	"github.com/mverab/flasharb/internal/fixedpoint"
	"github.com/mverab/flasharb/internal/logger"
)

const tracerName = "market.aggregator"

// AggregatorConfig holds validation settings for the aggregator.
type AggregatorConfig struct {
	MaxQuoteAge     time.Duration
	MaxDeviationBps int64
}

// Aggregator validates venue prices against the reference oracle and serves
// order book snapshots. It performs no retries: a failed collaborator call
// surfaces immediately.
type Aggregator struct {
	oracle   PriceOracle
	source   MarketSource
	registry *domain.Registry
	config   AggregatorConfig
	logger   logger.LoggerInterface
	tracer   trace.Tracer
	now      func() time.Time
}

// NewAggregator creates an Aggregator.
func NewAggregator(
	oracle PriceOracle,
	source MarketSource,
	registry *domain.Registry,
	cfg AggregatorConfig,
	log logger.LoggerInterface,
) *Aggregator {
	if cfg.MaxQuoteAge <= 0 {
		cfg.MaxQuoteAge = domain.DefaultMaxQuoteAge
	}
	if cfg.MaxDeviationBps <= 0 {
		cfg.MaxDeviationBps = domain.DefaultMaxDeviationBps
	}

	return &Aggregator{
		oracle:   oracle,
		source:   source,
		registry: registry,
		config:   cfg,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
}

// ValidatedPrice returns the venue price for an asset after freshness and
// manipulation checks against the reference oracle. The returned quote's
// Confidence reflects the measured deviation.
func (a *Aggregator) ValidatedPrice(ctx context.Context, venue domain.Venue, asset domain.Asset) (domain.PriceQuote, error) {
	ctx, span := a.tracer.Start(ctx, "market.validated_price",
		trace.WithAttributes(
			attribute.String("venue", venue.String()),
			attribute.String("asset", asset.String()),
		),
	)
	defer span.End()

	if !a.registry.SupportsAsset(asset) {
		return domain.PriceQuote{}, apperror.New(apperror.CodeUnsupportedAsset,
			apperror.WithContext(asset.String()))
	}
	if !a.registry.SupportsVenue(venue) {
		return domain.PriceQuote{}, apperror.New(apperror.CodeUnsupportedVenue,
			apperror.WithContext(venue.String()))
	}

	quote, err := a.source.Quote(ctx, venue, asset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quote fetch failed")
		return domain.PriceQuote{}, apperror.Wrap(err, apperror.CodeMarketDataError,
			"fetch venue quote")
	}

	now := a.now()
	if quote.Stale(now, a.config.MaxQuoteAge) {
		span.AddEvent("stale_quote")
		return domain.PriceQuote{}, apperror.New(apperror.CodeStaleData,
			apperror.WithContextf("%s quote on %s is %s old",
				asset, venue, now.Sub(quote.Timestamp).Truncate(time.Second)))
	}
	if quote.Price.Sign() <= 0 {
		return domain.PriceQuote{}, apperror.New(apperror.CodeMarketDataError,
			apperror.WithContext("non-positive venue price"))
	}

	ref, err := a.ReferencePrice(ctx, asset)
	if err != nil {
		span.RecordError(err)
		return domain.PriceQuote{}, err
	}

	deviation := domain.DeviationBps(quote.Price, ref.Price)
	span.SetAttributes(attribute.Int64("deviation_bps", deviation))

	if deviation > a.config.MaxDeviationBps {
		a.logger.Warn(ctx, "price deviates from oracle",
			"asset", asset.String(),
			"venue", venue.String(),
			"deviation_bps", deviation,
			"max_bps", a.config.MaxDeviationBps,
		)
		span.SetStatus(codes.Error, "manipulation suspected")
		return domain.PriceQuote{}, apperror.New(apperror.CodeManipulationDetected,
			apperror.WithContextf("%s on %s deviates %d bps from oracle", asset, venue, deviation))
	}

	quote.Confidence = domain.ConfidenceFromDeviation(deviation)
	span.SetStatus(codes.Ok, "validated")

	return quote, nil
}

// ReferencePrice returns the oracle price for an asset, enforcing the same
// freshness window applied to venue quotes.
func (a *Aggregator) ReferencePrice(ctx context.Context, asset domain.Asset) (domain.PriceQuote, error) {
	ctx, span := a.tracer.Start(ctx, "market.reference_price",
		trace.WithAttributes(attribute.String("asset", asset.String())),
	)
	defer span.End()

	ref, err := a.oracle.Price(ctx, asset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "oracle fetch failed")
		return domain.PriceQuote{}, apperror.Wrap(err, apperror.CodeProviderFailure,
			"fetch oracle price")
	}

	if ref.Stale(a.now(), a.config.MaxQuoteAge) {
		span.AddEvent("stale_oracle_price")
		return domain.PriceQuote{}, apperror.New(apperror.CodeStaleData,
			apperror.WithContextf("oracle price for %s is stale", asset))
	}
	if ref.Price.Sign() <= 0 {
		return domain.PriceQuote{}, apperror.New(apperror.CodeProviderFailure,
			apperror.WithContext("non-positive oracle price"))
	}

	span.SetStatus(codes.Ok, "fetched")
	return ref, nil
}

// TWAP proxies the oracle's time-weighted average price.
func (a *Aggregator) TWAP(ctx context.Context, asset domain.Asset, periods int) (fixedpoint.Value, error) {
	if periods <= 0 {
		return fixedpoint.Zero(), apperror.Validation("periods must be positive")
	}
	v, err := a.oracle.TWAP(ctx, asset, periods)
	if err != nil {
		return fixedpoint.Zero(), apperror.Wrap(err, apperror.CodeProviderFailure, "fetch twap")
	}
	return v, nil
}

// OrderBook returns the current book snapshot for a venue/asset pair.
// A pair with no submitted book yields an empty, valid snapshot.
func (a *Aggregator) OrderBook(ctx context.Context, venue domain.Venue, asset domain.Asset) (domain.OrderBookSnapshot, error) {
	ctx, span := a.tracer.Start(ctx, "market.order_book",
		trace.WithAttributes(
			attribute.String("venue", venue.String()),
			attribute.String("asset", asset.String()),
		),
	)
	defer span.End()

	if !a.registry.SupportsVenue(venue) {
		return domain.OrderBookSnapshot{}, apperror.New(apperror.CodeUnsupportedVenue,
			apperror.WithContext(venue.String()))
	}

	book, err := a.source.OrderBook(ctx, venue, asset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "book fetch failed")
		return domain.OrderBookSnapshot{}, apperror.Wrap(err, apperror.CodeMarketDataError,
			"fetch order book")
	}

	span.SetAttributes(
		attribute.Int("bid_levels", len(book.Bids)),
		attribute.Int("ask_levels", len(book.Asks)),
	)
	span.SetStatus(codes.Ok, "fetched")

	return book, nil
}
