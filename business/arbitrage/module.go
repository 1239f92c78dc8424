// Package arbitrage implements the arbitrage bounded context: slippage
// estimation, profit math and opportunity scanning.
package arbitrage

import (
	"context"

	"github.com/mverab/flasharb/business/arbitrage/app"
	arbitrageDI "github.com/mverab/flasharb/business/arbitrage/di"
	"github.com/mverab/flasharb/business/arbitrage/domain"
	"github.com/mverab/flasharb/business/arbitrage/infra"
	marketDI "github.com/mverab/flasharb/business/market/di"
	"github.com/mverab/flasharb/internal/di"
	"github.com/mverab/flasharb/internal/fixedpoint"
	"github.com/mverab/flasharb/internal/monolith"
)

// Module wires the arbitrage context.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	cfg := di.GetToken(c, monolith.TokenConfig)
	log := di.GetToken(c, monolith.TokenLogger)
	registry := di.GetToken(c, monolith.TokenRegistry)

	calculator := app.NewProfitCalculator()
	estimator := app.NewSlippageEstimator()

	fees := domain.FeeModel{
		MakerFeeBps:     cfg.Arbitrage.MakerFeeBps,
		TakerFeeBps:     cfg.Arbitrage.TakerFeeBps,
		FlashLoanFeeBps: cfg.Arbitrage.FlashLoanFeeBps,
	}
	var err error
	if fees.GasFee, err = fixedpoint.Parse(cfg.Arbitrage.GasFee); err != nil {
		return err
	}
	if fees.WithdrawalFee, err = fixedpoint.Parse(cfg.Arbitrage.WithdrawalFee); err != nil {
		return err
	}

	minProfit, err := fixedpoint.Parse(cfg.Arbitrage.MinProfit)
	if err != nil {
		return err
	}

	// Scans are sized to the configured position limit; the scanner clamps
	// further to visible book depth per pair.
	tradeSize, err := fixedpoint.Parse(cfg.Risk.MaxPositionSize)
	if err != nil {
		return err
	}

	scanner, err := app.NewScanner(
		marketDI.GetAggregator(c),
		calculator,
		estimator,
		registry,
		app.ScannerConfig{
			TradeSize:      tradeSize,
			MinProfit:      minProfit,
			OpportunityTTL: cfg.Arbitrage.OpportunityTTL,
			Fees:           fees,
		},
		log,
	)
	if err != nil {
		return err
	}

	di.RegisterToken(c, arbitrageDI.ProfitCalculator, calculator)
	di.RegisterToken(c, arbitrageDI.SlippageEstimator, estimator)
	di.RegisterToken(c, arbitrageDI.Scanner, scanner)
	di.RegisterToken(c, arbitrageDI.Reporter, app.Reporter(infra.NewConsoleReporter()))

	return nil
}

// Startup has nothing to connect; scanning is driven by the caller.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "arbitrage module started")
	return nil
}
