// Package app contains the execution coordinator: the service that drives a
// detected opportunity through the flash-loan state machine.
package app

import (
	"context"

	"github.com/mverab/flasharb/business/execution/domain"
	marketDomain "github.com/mverab/flasharb/business/market/domain"
	"github.com/mverab/flasharb/internal/fixedpoint"
)

// FlashLoanProvider funds executions. Request returns a loan identifier the
// coordinator passes back on repayment; an unrepaid loan is reverted by the
// provider, so failed executions simply never call Repay.
type FlashLoanProvider interface {
	Request(ctx context.Context, asset marketDomain.Asset, amount fixedpoint.Value, feeBps int64) (string, error)
	Repay(ctx context.Context, loanID string, amount fixedpoint.Value) error
}

// TradingEngine fills individual legs on a venue.
type TradingEngine interface {
	Buy(ctx context.Context, venue marketDomain.Venue, asset marketDomain.Asset, amount, limitPrice fixedpoint.Value) (domain.TradeResult, error)
	Sell(ctx context.Context, venue marketDomain.Venue, asset marketDomain.Asset, amount, limitPrice fixedpoint.Value) (domain.TradeResult, error)
}

// Bridge moves an asset between chains for cross-chain executions.
type Bridge interface {
	Transfer(ctx context.Context, asset marketDomain.Asset, amount fixedpoint.Value, from, to marketDomain.Chain) error
}

// GasPricer quotes the current gas price on the destination chain, in native
// token units per gas. Cross-chain executions are gated on it.
type GasPricer interface {
	GasPrice(ctx context.Context) (fixedpoint.Value, error)
}
