// Package infra contains infrastructure adapters for the execution context.
package infra

import (
	"context"
	"math/big"

	"github.com/mverab/flasharb/business/market/infra/evm"
	"github.com/mverab/flasharb/internal/fixedpoint"
)

// weiPerRawUnit converts wei (1e18 per token) down to fixed-point raw units
// (1e8 per token).
var weiPerRawUnit = big.NewInt(10_000_000_000)

// EVMGasPricer adapts the Ethereum gas oracle to the coordinator's gas
// gate, converting wei-per-gas into native token units.
type EVMGasPricer struct {
	oracle *evm.GasOracle
}

// NewEVMGasPricer wraps a connected gas oracle.
func NewEVMGasPricer(oracle *evm.GasOracle) *EVMGasPricer {
	return &EVMGasPricer{oracle: oracle}
}

// GasPrice returns the current suggested gas price in native token units.
func (p *EVMGasPricer) GasPrice(ctx context.Context) (fixedpoint.Value, error) {
	wei, err := p.oracle.GasPrice(ctx)
	if err != nil {
		return fixedpoint.Zero(), err
	}
	return fixedpoint.FromRaw(new(big.Int).Quo(wei, weiPerRawUnit)), nil
}
