// Package execution implements the execution bounded context: the flash-loan
// state machine that turns detected opportunities into settled trades.
package execution

import (
	"context"

	arbitrageDI "github.com/mverab/flasharb/business/arbitrage/di"
	"github.com/mverab/flasharb/business/arbitrage/domain"
	"github.com/mverab/flasharb/business/execution/app"
	executionDI "github.com/mverab/flasharb/business/execution/di"
	"github.com/mverab/flasharb/business/execution/infra"
	"github.com/mverab/flasharb/business/execution/infra/sim"
	marketDI "github.com/mverab/flasharb/business/market/di"
	riskDI "github.com/mverab/flasharb/business/risk/di"
	"github.com/mverab/flasharb/internal/di"
	"github.com/mverab/flasharb/internal/fixedpoint"
	"github.com/mverab/flasharb/internal/monolith"
)

// Module wires the execution context with simulated venue adapters. Swapping
// in live adapters means replacing the engine, loan provider and bridge
// registrations; the coordinator is agnostic.
type Module struct {
	coordinator *app.Coordinator
}

// RegisterServices registers all execution services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	cfg := di.GetToken(c, monolith.TokenConfig)
	log := di.GetToken(c, monolith.TokenLogger)
	store := di.GetToken(c, monolith.TokenStore)

	engine, err := sim.NewEngine(marketDI.GetAggregator(c), sim.EngineConfig{}, log)
	if err != nil {
		return err
	}
	loans := sim.NewLoanProvider(log)
	bridge := sim.NewBridge(log)

	// The gas gate only applies when an Ethereum endpoint is configured.
	var gas app.GasPricer
	if _, ok := c.Get(marketDI.GasOracle.Name()); ok {
		gas = infra.NewEVMGasPricer(marketDI.GetGasOracle(c))
	}

	fees := domain.FeeModel{
		MakerFeeBps:     cfg.Arbitrage.MakerFeeBps,
		TakerFeeBps:     cfg.Arbitrage.TakerFeeBps,
		FlashLoanFeeBps: cfg.Arbitrage.FlashLoanFeeBps,
	}
	if fees.GasFee, err = fixedpoint.Parse(cfg.Arbitrage.GasFee); err != nil {
		return err
	}
	if fees.WithdrawalFee, err = fixedpoint.Parse(cfg.Arbitrage.WithdrawalFee); err != nil {
		return err
	}

	coordinator, err := app.NewCoordinator(
		loans, engine, bridge, gas,
		riskDI.GetManager(c),
		arbitrageDI.GetProfitCalculator(c),
		store,
		app.CoordinatorConfig{
			Fees:             fees,
			DefaultDeadline:  cfg.Execution.DefaultDeadline,
			CrossChainFeeBps: cfg.Execution.CrossChainFeeBps,
		},
		log,
	)
	if err != nil {
		return err
	}
	m.coordinator = coordinator

	di.RegisterToken(c, executionDI.TradingEngine, app.TradingEngine(engine))
	di.RegisterToken(c, executionDI.FlashLoanProvider, app.FlashLoanProvider(loans))
	di.RegisterToken(c, executionDI.BridgeClient, app.Bridge(bridge))
	di.RegisterToken(c, executionDI.Coordinator, coordinator)

	return nil
}

// Startup restores persisted execution metrics.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	if err := m.coordinator.Load(ctx); err != nil {
		return err
	}
	mono.Logger().Info(ctx, "execution module started")
	return nil
}
