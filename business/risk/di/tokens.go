// Package di contains dependency injection tokens for the risk context.
package di

import (
	"github.com/mverab/flasharb/business/risk/app"
	"github.com/mverab/flasharb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Manager = di.NewToken[*app.Manager]("risk.Manager")
)

// Helper functions for type-safe access
func GetManager(c di.ServiceRegistry) *app.Manager {
	return di.GetToken(c, Manager)
}
