// Package di contains dependency injection tokens for the execution context.
package di

import (
	"github.com/mverab/flasharb/business/execution/app"
	"github.com/mverab/flasharb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Coordinator = di.NewToken[*app.Coordinator]("execution.Coordinator")
)

// Private dependency tokens - internal to the execution module
var (
	TradingEngine     = di.NewToken[app.TradingEngine]("execution:tradingEngine")
	FlashLoanProvider = di.NewToken[app.FlashLoanProvider]("execution:flashLoanProvider")
	BridgeClient      = di.NewToken[app.Bridge]("execution:bridge")
)

// Helper functions for type-safe access
func GetCoordinator(c di.ServiceRegistry) *app.Coordinator {
	return di.GetToken(c, Coordinator)
}
