package app

import (
	"context"

	"github.com/mverab/flasharb/business/arbitrage/domain"
	marketDomain "github.com/mverab/flasharb/business/market/domain"
)

// MarketData is the slice of the market context the scanner consumes.
type MarketData interface {
	// ValidatedPrice returns an oracle-validated venue price.
	ValidatedPrice(ctx context.Context, venue marketDomain.Venue, asset marketDomain.Asset) (marketDomain.PriceQuote, error)

	// OrderBook returns the venue's book; empty when none was submitted.
	OrderBook(ctx context.Context, venue marketDomain.Venue, asset marketDomain.Asset) (marketDomain.OrderBookSnapshot, error)
}

// Reporter receives detected opportunities for display or logging.
type Reporter interface {
	// Report sends one scan's ranked opportunities.
	Report(opportunities []domain.Opportunity)
}
