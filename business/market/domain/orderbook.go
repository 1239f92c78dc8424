package domain

import (
	"time"

	"github.com/mverab/flasharb/internal/apperror"
	"github.com/mverab/flasharb/internal/fixedpoint"
)

// Level is a single order book price level.
type Level struct {
	Price  fixedpoint.Value
	Amount fixedpoint.Value
}

// OrderBookSnapshot is a point-in-time view of a venue's book for one asset.
// Bids are sorted best-first (descending price), asks best-first (ascending
// price). An empty book is a valid snapshot, not an error.
type OrderBookSnapshot struct {
	Venue     Venue
	Asset     Asset
	Bids      []Level
	Asks      []Level
	Timestamp time.Time
}

// Validate checks level ordering and positivity. Empty sides are fine.
func (b OrderBookSnapshot) Validate() error {
	for i, lvl := range b.Bids {
		if lvl.Price.Sign() <= 0 || lvl.Amount.Sign() <= 0 {
			return apperror.Validation("bid levels must have positive price and amount")
		}
		if i > 0 && b.Bids[i-1].Price.Cmp(lvl.Price) < 0 {
			return apperror.Validation("bids must be sorted best-first")
		}
	}
	for i, lvl := range b.Asks {
		if lvl.Price.Sign() <= 0 || lvl.Amount.Sign() <= 0 {
			return apperror.Validation("ask levels must have positive price and amount")
		}
		if i > 0 && b.Asks[i-1].Price.Cmp(lvl.Price) > 0 {
			return apperror.Validation("asks must be sorted best-first")
		}
	}
	return nil
}

// Empty reports whether both sides of the book are empty.
func (b OrderBookSnapshot) Empty() bool {
	return len(b.Bids) == 0 && len(b.Asks) == 0
}

// BestBid returns the highest bid, if any.
func (b OrderBookSnapshot) BestBid() (Level, bool) {
	if len(b.Bids) == 0 {
		return Level{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the lowest ask, if any.
func (b OrderBookSnapshot) BestAsk() (Level, bool) {
	if len(b.Asks) == 0 {
		return Level{}, false
	}
	return b.Asks[0], true
}

// BidDepth returns the cumulative bid amount across all levels.
func (b OrderBookSnapshot) BidDepth() fixedpoint.Value {
	total := fixedpoint.Zero()
	for _, lvl := range b.Bids {
		total = total.Add(lvl.Amount)
	}
	return total
}

// AskDepth returns the cumulative ask amount across all levels.
func (b OrderBookSnapshot) AskDepth() fixedpoint.Value {
	total := fixedpoint.Zero()
	for _, lvl := range b.Asks {
		total = total.Add(lvl.Amount)
	}
	return total
}
