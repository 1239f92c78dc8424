// Package domain contains risk management types.
package domain

import (
	"github.com/mverab/flasharb/internal/apperror"
	"github.com/mverab/flasharb/internal/fixedpoint"
)

// Parameters are the live risk limits. The authoritative copy lives in the
// state store; updates are last-write-wins from a single admin writer.
type Parameters struct {
	MaxPositionSize    fixedpoint.Value
	MaxSlippageBps     int64
	MinProfitThreshold fixedpoint.Value
	MaxGasPrice        fixedpoint.Value
	EmergencyStop      bool
}

// DefaultParameters returns the conservative startup limits: 100 unit
// positions, 1% slippage, a dust-level profit floor.
func DefaultParameters() Parameters {
	return Parameters{
		MaxPositionSize:    fixedpoint.FromUnits(100),
		MaxSlippageBps:     100,
		MinProfitThreshold: fixedpoint.MustParse("0.00001"),
		MaxGasPrice:        fixedpoint.MustParse("0.01"),
		EmergencyStop:      false,
	}
}

// Validate rejects unusable limits.
func (p Parameters) Validate() error {
	if p.MaxPositionSize.Sign() <= 0 {
		return apperror.Validation("max position size must be positive")
	}
	if p.MaxSlippageBps <= 0 || p.MaxSlippageBps > 10_000 {
		return apperror.Validation("max slippage must be in (0, 10000] bps")
	}
	if p.MinProfitThreshold.IsNegative() {
		return apperror.Validation("min profit threshold cannot be negative")
	}
	if p.MaxGasPrice.Sign() <= 0 {
		return apperror.Validation("max gas price must be positive")
	}
	return nil
}
