// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"github.com/mverab/flasharb/internal/apperror"
	"github.com/mverab/flasharb/internal/fixedpoint"
)

// FeeModel captures every cost applied to a two-leg arbitrage. A FeeModel is
// immutable for the duration of one calculation: callers snapshot it before
// evaluating an opportunity so both legs see the same rates.
type FeeModel struct {
	MakerFeeBps     int64
	TakerFeeBps     int64
	FlashLoanFeeBps int64
	WithdrawalFee   fixedpoint.Value
	GasFee          fixedpoint.Value
}

// DefaultFeeModel returns the standard venue fee schedule: 5 bps maker,
// 10 bps taker, 5 bps flash loan premium, fixed 0.001 gas.
func DefaultFeeModel() FeeModel {
	return FeeModel{
		MakerFeeBps:     5,
		TakerFeeBps:     10,
		FlashLoanFeeBps: 5,
		WithdrawalFee:   fixedpoint.Zero(),
		GasFee:          fixedpoint.MustParse("0.001"),
	}
}

// Validate rejects negative rates and fees.
func (f FeeModel) Validate() error {
	if f.MakerFeeBps < 0 || f.TakerFeeBps < 0 || f.FlashLoanFeeBps < 0 {
		return apperror.Validation("fee rates cannot be negative")
	}
	if f.WithdrawalFee.IsNegative() || f.GasFee.IsNegative() {
		return apperror.Validation("fixed fees cannot be negative")
	}
	return nil
}
