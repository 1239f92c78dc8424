// Package app contains application services and port definitions for the
// market data context.
package app

import (
	"context"

	"github.com/mverab/flasharb/business/market/domain"
	"github.com/mverab/flasharb/internal/fixedpoint"
)

// PriceOracle provides manipulation-resistant reference prices.
type PriceOracle interface {
	// Price returns the current reference price for an asset.
	Price(ctx context.Context, asset domain.Asset) (domain.PriceQuote, error)

	// TWAP returns the time-weighted average price over the last n periods.
	TWAP(ctx context.Context, asset domain.Asset, periods int) (fixedpoint.Value, error)
}

// MarketSource provides venue-level quotes and order books.
type MarketSource interface {
	// Quote returns the latest price for an asset on a venue.
	Quote(ctx context.Context, venue domain.Venue, asset domain.Asset) (domain.PriceQuote, error)

	// OrderBook returns the latest book snapshot. When no book has been
	// submitted for the pair an empty snapshot is returned, not an error.
	OrderBook(ctx context.Context, venue domain.Venue, asset domain.Asset) (domain.OrderBookSnapshot, error)
}

// MarketSink is the ingestion side used by the off-process data collector.
type MarketSink interface {
	// SubmitQuote stores a venue quote.
	SubmitQuote(ctx context.Context, quote domain.PriceQuote) error

	// SubmitOrderBook stores a book snapshot after validation.
	SubmitOrderBook(ctx context.Context, book domain.OrderBookSnapshot) error
}
