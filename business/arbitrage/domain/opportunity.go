package domain

import (
	"time"

	marketDomain "github.com/mverab/flasharb/business/market/domain"
	"github.com/mverab/flasharb/internal/fixedpoint"
)

// DefaultOpportunityTTL is how long a detected opportunity stays actionable.
const DefaultOpportunityTTL = 30 * time.Second

// Opportunity is a detected price discrepancy: buy on BuyVenue, sell on
// SellVenue. SellPrice is already slippage-adjusted; EstimatedProfit is the
// unfloored net profit after all fees.
type Opportunity struct {
	Asset           marketDomain.Asset
	BuyVenue        marketDomain.Venue
	SellVenue       marketDomain.Venue
	BuyPrice        fixedpoint.Value
	SellPrice       fixedpoint.Value
	AvailableAmount fixedpoint.Value
	EstimatedProfit fixedpoint.Value
	ConfidenceScore int64 // 0..100
	DetectedAt      time.Time
	ExpiryTime      time.Time
}

// Expired reports whether the opportunity is past its expiry at now.
func (o Opportunity) Expired(now time.Time) bool {
	return now.After(o.ExpiryTime)
}

// SpreadBps returns the raw buy/sell spread in basis points of the buy price.
func (o Opportunity) SpreadBps() int64 {
	if o.BuyPrice.Sign() <= 0 {
		return 0
	}
	bps, err := o.SellPrice.Sub(o.BuyPrice).Ratio(o.BuyPrice)
	if err != nil {
		return 0
	}
	return bps
}

// SlippageProvenance records how a slippage figure was derived.
type SlippageProvenance string

// Provenance values.
const (
	// SlippageFromBook means the estimate came from walking real depth.
	SlippageFromBook SlippageProvenance = "book"
	// SlippageFromModel means no book was available and the linear size
	// model was used instead.
	SlippageFromModel SlippageProvenance = "model"
)

// SlippageEstimate is an estimated execution slippage in basis points,
// tagged with its provenance so consumers can tell depth-derived figures
// from modeled ones.
type SlippageEstimate struct {
	Bps        int64
	Provenance SlippageProvenance
}
