package domain

import (
	"time"

	"github.com/mverab/flasharb/internal/fixedpoint"
)

// DefaultMaxQuoteAge is the freshness window applied to venue quotes.
const DefaultMaxQuoteAge = 60 * time.Second

// DefaultMaxDeviationBps is the oracle deviation past which a venue price is
// treated as manipulated.
const DefaultMaxDeviationBps int64 = 500

// PriceQuote is a point-in-time price for an asset on a venue.
// Confidence is 0..100, derived from the deviation against the reference
// oracle at validation time.
type PriceQuote struct {
	Asset      Asset
	Venue      Venue
	Price      fixedpoint.Value
	Timestamp  time.Time
	Confidence int64
}

// Stale reports whether the quote is older than maxAge at now.
func (q PriceQuote) Stale(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		maxAge = DefaultMaxQuoteAge
	}
	return now.Sub(q.Timestamp) > maxAge
}

// DeviationBps returns the absolute deviation of price from ref in basis
// points. A zero or negative reference yields the maximum deviation.
func DeviationBps(price, ref fixedpoint.Value) int64 {
	if ref.Sign() <= 0 {
		return 10_000
	}
	bps, err := price.Sub(ref).Abs().Ratio(ref)
	if err != nil {
		return 10_000
	}
	return bps
}

// ValidateDeviation reports whether price is within maxBps of the
// reference price.
func ValidateDeviation(price, ref fixedpoint.Value, maxBps int64) bool {
	return DeviationBps(price, ref) <= maxBps
}

// ConfidenceFromDeviation maps a deviation to a 0..100 confidence score:
// zero deviation scores 100, anything at or past 100 bps scores down
// linearly and clamps at 0.
func ConfidenceFromDeviation(deviationBps int64) int64 {
	score := 100 - deviationBps
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
