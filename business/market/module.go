// Package market implements the market data bounded context: venue quotes,
// order books and oracle-validated prices.
package market

import (
	"context"

	"github.com/mverab/flasharb/business/market/app"
	marketDI "github.com/mverab/flasharb/business/market/di"
	"github.com/mverab/flasharb/business/market/infra/evm"
	"github.com/mverab/flasharb/business/market/infra/reflector"
	storeinfra "github.com/mverab/flasharb/business/market/infra/store"
	"github.com/mverab/flasharb/internal/di"
	"github.com/mverab/flasharb/internal/monolith"
)

// Module wires the market data context.
type Module struct {
	oracle    *reflector.Client
	gasOracle *evm.GasOracle
}

// RegisterServices registers all market services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	cfg := di.GetToken(c, monolith.TokenConfig)
	log := di.GetToken(c, monolith.TokenLogger)
	store := di.GetToken(c, monolith.TokenStore)
	registry := di.GetToken(c, monolith.TokenRegistry)

	oracle, err := reflector.New(reflector.Config{
		BaseURL:  cfg.Market.OracleURL,
		Timeout:  cfg.Market.OracleTimeout,
		CacheTTL: cfg.Market.OracleCacheTTL,
	}, log)
	if err != nil {
		return err
	}
	m.oracle = oracle

	source := storeinfra.New(store)

	aggregator := app.NewAggregator(oracle, source, registry, app.AggregatorConfig{
		MaxQuoteAge:     cfg.Market.MaxQuoteAge,
		MaxDeviationBps: cfg.Market.MaxDeviationBps,
	}, log)

	di.RegisterToken(c, marketDI.PriceOracle, app.PriceOracle(oracle))
	di.RegisterToken(c, marketDI.MarketSource, app.MarketSource(source))
	di.RegisterToken(c, marketDI.MarketSink, app.MarketSink(source))
	di.RegisterToken(c, marketDI.Aggregator, aggregator)

	if cfg.Ethereum.HTTPURL != "" {
		gasOracle, err := evm.NewGasOracle(evm.DefaultGasOracleConfig(cfg.Ethereum.HTTPURL), log)
		if err != nil {
			return err
		}
		m.gasOracle = gasOracle
		di.RegisterToken(c, marketDI.GasOracle, gasOracle)
	}

	return nil
}

// Startup connects external providers.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	if m.gasOracle != nil {
		if err := m.gasOracle.Connect(ctx); err != nil {
			return err
		}
	}

	mono.Logger().Info(ctx, "market module started",
		"assets", len(mono.Registry().Assets()),
		"venues", len(mono.Registry().Venues()),
	)
	return nil
}

// Close releases provider resources.
func (m *Module) Close() error {
	if m.oracle != nil {
		_ = m.oracle.Close()
	}
	if m.gasOracle != nil {
		_ = m.gasOracle.Close()
	}
	return nil
}
