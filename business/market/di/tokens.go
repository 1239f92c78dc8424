// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/mverab/flasharb/business/market/app"
	"github.com/mverab/flasharb/business/market/infra/evm"
	"github.com/mverab/flasharb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Aggregator = di.NewToken[*app.Aggregator]("market.Aggregator")
	GasOracle  = di.NewToken[*evm.GasOracle]("market.GasOracle")
)

// Private dependency tokens - internal to the market module
var (
	PriceOracle  = di.NewToken[app.PriceOracle]("market:priceOracle")
	MarketSource = di.NewToken[app.MarketSource]("market:marketSource")
	MarketSink   = di.NewToken[app.MarketSink]("market:marketSink")
)

// Helper functions for type-safe access
func GetAggregator(c di.ServiceRegistry) *app.Aggregator {
	return di.GetToken(c, Aggregator)
}

func GetGasOracle(c di.ServiceRegistry) *evm.GasOracle {
	return di.GetToken(c, GasOracle)
}

func GetMarketSink(c di.ServiceRegistry) app.MarketSink {
	return di.GetToken(c, MarketSink)
}
