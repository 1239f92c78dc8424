// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/mverab/flasharb/business/arbitrage/app"
	"github.com/mverab/flasharb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Scanner          = di.NewToken[*app.Scanner]("arbitrage.Scanner")
	ProfitCalculator = di.NewToken[*app.ProfitCalculator]("arbitrage.ProfitCalculator")
	SlippageEstimator = di.NewToken[*app.SlippageEstimator]("arbitrage.SlippageEstimator")
)

// Private dependency tokens - internal to the arbitrage module
var (
	Reporter = di.NewToken[app.Reporter]("arbitrage:reporter")
)

// Helper functions for type-safe access
func GetScanner(c di.ServiceRegistry) *app.Scanner {
	return di.GetToken(c, Scanner)
}

func GetProfitCalculator(c di.ServiceRegistry) *app.ProfitCalculator {
	return di.GetToken(c, ProfitCalculator)
}

func GetSlippageEstimator(c di.ServiceRegistry) *app.SlippageEstimator {
	return di.GetToken(c, SlippageEstimator)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
