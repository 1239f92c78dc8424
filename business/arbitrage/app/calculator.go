// Package app contains application services and port definitions for the
// arbitrage context.
package app

import (
	"github.com/mverab/flasharb/business/arbitrage/domain"
	"github.com/mverab/flasharb/internal/fixedpoint"
)

// ProfitBreakdown itemizes the costs behind a profit figure.
type ProfitBreakdown struct {
	GrossProfit   fixedpoint.Value
	BuyFee        fixedpoint.Value
	SellFee       fixedpoint.Value
	FlashLoanFee  fixedpoint.Value
	GasFee        fixedpoint.Value
	WithdrawalFee fixedpoint.Value
	NetProfit     fixedpoint.Value // unfloored: negative when the trade loses
}

// ProfitCalculator computes fee-adjusted arbitrage profit.
type ProfitCalculator struct{}

// NewProfitCalculator creates a ProfitCalculator.
func NewProfitCalculator() *ProfitCalculator {
	return &ProfitCalculator{}
}

// NetProfit returns the unfloored net profit of buying amount at buyPrice
// and selling at sellPrice under the given fee model. Degenerate inputs
// (non-positive price or amount, sell not above buy) yield zero: they are
// "no opportunity", not errors.
//
// Taker fees apply to both leg notionals; the flash loan premium applies to
// the sell notional that repays the loan; gas and withdrawal are fixed.
func (c *ProfitCalculator) NetProfit(buyPrice, sellPrice, amount fixedpoint.Value, fees domain.FeeModel) fixedpoint.Value {
	return c.Breakdown(buyPrice, sellPrice, amount, fees).NetProfit
}

// Profit is the external view of NetProfit, floored at zero.
func (c *ProfitCalculator) Profit(buyPrice, sellPrice, amount fixedpoint.Value, fees domain.FeeModel) fixedpoint.Value {
	return c.NetProfit(buyPrice, sellPrice, amount, fees).FloorZero()
}

// Breakdown returns the full cost itemization behind NetProfit.
func (c *ProfitCalculator) Breakdown(buyPrice, sellPrice, amount fixedpoint.Value, fees domain.FeeModel) ProfitBreakdown {
	if buyPrice.Sign() <= 0 || sellPrice.Sign() <= 0 || amount.Sign() <= 0 {
		return ProfitBreakdown{}
	}
	if sellPrice.Cmp(buyPrice) <= 0 {
		return ProfitBreakdown{}
	}

	buyNotional := amount.Mul(buyPrice)
	sellNotional := amount.Mul(sellPrice)

	b := ProfitBreakdown{
		GrossProfit:   sellNotional.Sub(buyNotional),
		BuyFee:        buyNotional.MulBps(fees.TakerFeeBps),
		SellFee:       sellNotional.MulBps(fees.TakerFeeBps),
		FlashLoanFee:  sellNotional.MulBps(fees.FlashLoanFeeBps),
		GasFee:        fees.GasFee,
		WithdrawalFee: fees.WithdrawalFee,
	}

	b.NetProfit = b.GrossProfit.
		Sub(b.BuyFee).
		Sub(b.SellFee).
		Sub(b.FlashLoanFee).
		Sub(b.GasFee).
		Sub(b.WithdrawalFee)

	return b
}
