package sim

import (
	"context"

	marketDomain "github.com/mverab/flasharb/business/market/domain"
	"github.com/mverab/flasharb/internal/apperror"
	"github.com/mverab/flasharb/internal/fixedpoint"
	"github.com/mverab/flasharb/internal/logger"
)

// Bridge is a paper cross-chain bridge: transfers between supported chains
// always settle, with the fee accounting handled by the coordinator.
type Bridge struct {
	logger logger.LoggerInterface
}

// NewBridge creates a simulated bridge.
func NewBridge(log logger.LoggerInterface) *Bridge {
	return &Bridge{logger: log}
}

// Transfer moves amount of asset between chains.
func (b *Bridge) Transfer(ctx context.Context, asset marketDomain.Asset, amount fixedpoint.Value, from, to marketDomain.Chain) error {
	if from == marketDomain.ChainUnknown || to == marketDomain.ChainUnknown {
		return apperror.New(apperror.CodeCrossChainTransferFailed,
			apperror.WithContext("unknown chain"))
	}
	if from == to {
		return apperror.New(apperror.CodeCrossChainTransferFailed,
			apperror.WithContext("source and destination chains match"))
	}
	if amount.Sign() <= 0 {
		return apperror.New(apperror.CodeCrossChainTransferFailed,
			apperror.WithContext("transfer amount must be positive"))
	}

	b.logger.Debug(ctx, "simulated bridge transfer",
		"asset", asset.String(),
		"amount", amount.String(),
		"from", from.String(),
		"to", to.String(),
	)
	return nil
}
