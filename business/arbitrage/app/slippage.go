package app

import (
	"github.com/mverab/flasharb/business/arbitrage/domain"
	marketDomain "github.com/mverab/flasharb/business/market/domain"
	"github.com/mverab/flasharb/internal/apperror"
	"github.com/mverab/flasharb/internal/fixedpoint"
)

// Side of a prospective trade, from the taker's point of view.
type Side int

// Trade sides.
const (
	SideBuy Side = iota
	SideSell
)

// String returns the side name.
func (s Side) String() string {
	if s == SideBuy {
		return "buy"
	}
	return "sell"
}

// Slippage estimation constants, in basis points.
const (
	// insufficientDepthBps is returned when the book cannot absorb the
	// trade at all. It is a fixed penalty, deliberately not interpolated.
	insufficientDepthBps = 500
	// maxBookSlippageBps caps book-derived estimates.
	maxBookSlippageBps = 1_000
	// modelBaseBps is the floor of the no-book linear model.
	modelBaseBps = 5
	// modelBpsPerHundredUnits is the model's size component.
	modelBpsPerHundredUnits = 3
	// maxModelSlippageBps caps the no-book model.
	maxModelSlippageBps = 500
)

// SlippageEstimator estimates execution slippage by walking order book
// depth, with a size-linear model as fallback when no book exists.
type SlippageEstimator struct{}

// NewSlippageEstimator creates a SlippageEstimator.
func NewSlippageEstimator() *SlippageEstimator {
	return &SlippageEstimator{}
}

// Estimate returns the expected slippage for taking tradeSize out of the
// book on the given side. Estimates are monotonically non-decreasing in
// trade size for a fixed book.
func (e *SlippageEstimator) Estimate(book marketDomain.OrderBookSnapshot, side Side, tradeSize fixedpoint.Value) (domain.SlippageEstimate, error) {
	if tradeSize.Sign() <= 0 {
		return domain.SlippageEstimate{}, apperror.Validation("trade size must be positive")
	}

	levels := book.Asks
	if side == SideSell {
		levels = book.Bids
	}

	if len(levels) == 0 {
		return e.modelEstimate(tradeSize), nil
	}

	best := levels[0].Price
	remaining := tradeSize

	for _, lvl := range levels {
		remaining = remaining.Sub(lvl.Amount)
		if remaining.Sign() <= 0 {
			bps := priceImpactBps(best, lvl.Price)
			if bps > maxBookSlippageBps {
				bps = maxBookSlippageBps
			}
			return domain.SlippageEstimate{Bps: bps, Provenance: domain.SlippageFromBook}, nil
		}
	}

	// The whole book is thinner than the trade.
	return domain.SlippageEstimate{Bps: insufficientDepthBps, Provenance: domain.SlippageFromBook}, nil
}

// modelEstimate is the no-book fallback: a small base plus a linear size
// component, capped well below the book-derived maximum.
func (e *SlippageEstimator) modelEstimate(tradeSize fixedpoint.Value) domain.SlippageEstimate {
	hundreds, err := tradeSize.DivInt(100)
	if err != nil {
		hundreds = fixedpoint.Zero()
	}

	// Whole hundreds of units; the fractional part does not count.
	sizeComponent := hundreds.Raw().Quo(hundreds.Raw(), fixedpoint.Scale).Int64() * modelBpsPerHundredUnits

	bps := modelBaseBps + sizeComponent
	if bps > maxModelSlippageBps {
		bps = maxModelSlippageBps
	}
	return domain.SlippageEstimate{Bps: bps, Provenance: domain.SlippageFromModel}
}

// priceImpactBps measures how far fill price drifted from the best level,
// in basis points of the best price.
func priceImpactBps(best, fill fixedpoint.Value) int64 {
	if best.Sign() <= 0 {
		return maxBookSlippageBps
	}
	bps, err := fill.Sub(best).Abs().Ratio(best)
	if err != nil {
		return maxBookSlippageBps
	}
	return bps
}
