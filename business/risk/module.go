// Package risk implements the risk management bounded context: position
// sizing, pre-trade limit checks and the emergency stop.
package risk

import (
	"context"

	"github.com/mverab/flasharb/business/risk/app"
	riskDI "github.com/mverab/flasharb/business/risk/di"
	"github.com/mverab/flasharb/business/risk/domain"
	"github.com/mverab/flasharb/internal/di"
	"github.com/mverab/flasharb/internal/fixedpoint"
	"github.com/mverab/flasharb/internal/monolith"
)

// Module wires the risk context.
type Module struct {
	manager *app.Manager
}

// RegisterServices registers all risk services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	cfg := di.GetToken(c, monolith.TokenConfig)
	log := di.GetToken(c, monolith.TokenLogger)
	store := di.GetToken(c, monolith.TokenStore)

	initial := domain.DefaultParameters()
	var err error
	if initial.MaxPositionSize, err = fixedpoint.Parse(cfg.Risk.MaxPositionSize); err != nil {
		return err
	}
	if initial.MinProfitThreshold, err = fixedpoint.Parse(cfg.Risk.MinProfitThreshold); err != nil {
		return err
	}
	if initial.MaxGasPrice, err = fixedpoint.Parse(cfg.Risk.MaxGasPrice); err != nil {
		return err
	}
	initial.MaxSlippageBps = cfg.Risk.MaxSlippageBps

	manager, err := app.NewManager(store, initial, log)
	if err != nil {
		return err
	}
	m.manager = manager

	di.RegisterToken(c, riskDI.Manager, manager)

	return nil
}

// Startup restores persisted risk parameters; config values only seed the
// very first run.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	if err := m.manager.Load(ctx); err != nil {
		return err
	}
	mono.Logger().Info(ctx, "risk module started")
	return nil
}
