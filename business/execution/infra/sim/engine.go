// Package sim provides paper-trading adapters: a trading engine that fills
// against validated market prices and a flash-loan provider with unlimited
// liquidity. They back dry-run mode, where the coordinator runs the full
// state machine without touching a real venue.
package sim

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	executionDomain "github.com/mverab/flasharb/business/execution/domain"
	marketApp "github.com/mverab/flasharb/business/market/app"
	marketDomain "github.com/mverab/flasharb/business/market/domain"
	"github.com/mverab/flasharb/internal/apperror"
	"github.com/mverab/flasharb/internal/fixedpoint"
	"github.com/mverab/flasharb/internal/logger"
)

const (
	tracerName = "execution.sim"
	meterName  = "execution.sim"
)

// EngineConfig holds simulation settings.
type EngineConfig struct {
	// FillSlippageBps is applied adversely to every fill: buys fill above
	// the validated price, sells below it.
	FillSlippageBps int64
}

type engineMetrics struct {
	trades metric.Int64Counter
}

// Engine is a paper-trading venue adapter. Fills are priced off the market
// aggregator's validated quote at fill time, not the quote the opportunity
// was detected with, so quote drift shows up in realized profit exactly as
// it would live.
type Engine struct {
	market  *marketApp.Aggregator
	config  EngineConfig
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *engineMetrics
}

// NewEngine creates a simulated trading engine.
func NewEngine(market *marketApp.Aggregator, cfg EngineConfig, log logger.LoggerInterface) (*Engine, error) {
	e := &Engine{
		market: market,
		config: cfg,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}

	if err := e.initMetrics(); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Engine) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	e.metrics = &engineMetrics{}

	e.metrics.trades, err = meter.Int64Counter(
		"sim_trades_total",
		metric.WithDescription("Simulated fills by side"),
		metric.WithUnit("{trade}"),
	)
	return err
}

// Buy fills a buy at the validated price plus fill slippage.
func (e *Engine) Buy(ctx context.Context, venue marketDomain.Venue, asset marketDomain.Asset, amount, limitPrice fixedpoint.Value) (executionDomain.TradeResult, error) {
	return e.trade(ctx, "buy", venue, asset, amount, limitPrice)
}

// Sell fills a sell at the validated price minus fill slippage.
func (e *Engine) Sell(ctx context.Context, venue marketDomain.Venue, asset marketDomain.Asset, amount, limitPrice fixedpoint.Value) (executionDomain.TradeResult, error) {
	return e.trade(ctx, "sell", venue, asset, amount, limitPrice)
}

func (e *Engine) trade(ctx context.Context, side string, venue marketDomain.Venue, asset marketDomain.Asset, amount, limitPrice fixedpoint.Value) (executionDomain.TradeResult, error) {
	ctx, span := e.tracer.Start(ctx, "sim.trade",
		trace.WithAttributes(
			attribute.String("side", side),
			attribute.String("venue", venue.String()),
			attribute.String("asset", asset.String()),
		),
	)
	defer span.End()

	if amount.Sign() <= 0 {
		return executionDomain.TradeResult{}, apperror.Validation("trade amount must be positive")
	}

	quote, err := e.market.ValidatedPrice(ctx, venue, asset)
	if err != nil {
		return executionDomain.TradeResult{}, apperror.Wrap(err, apperror.CodeTradeExecutionFailed,
			"no fill price available")
	}

	price := quote.Price
	slip := price.MulBps(e.config.FillSlippageBps)
	if side == "buy" {
		price = price.Add(slip)
	} else {
		price = price.Sub(slip)
	}

	// A limit order that can't fill at or better than its limit is rejected,
	// same as a venue would.
	if limitPrice.Sign() > 0 {
		if side == "buy" && price.Cmp(limitPrice) > 0 {
			return executionDomain.TradeResult{}, apperror.New(apperror.CodeTradeExecutionFailed,
				apperror.WithContextf("fill %s over buy limit %s", price, limitPrice))
		}
		if side == "sell" && price.Cmp(limitPrice) < 0 {
			return executionDomain.TradeResult{}, apperror.New(apperror.CodeTradeExecutionFailed,
				apperror.WithContextf("fill %s under sell limit %s", price, limitPrice))
		}
	}

	e.metrics.trades.Add(ctx, 1,
		metric.WithAttributes(attribute.String("side", side)))

	e.logger.Debug(ctx, "simulated fill",
		"side", side,
		"venue", venue.String(),
		"asset", asset.String(),
		"amount", amount.String(),
		"price", price.String(),
	)

	return executionDomain.TradeResult{
		Venue:    venue,
		Price:    price,
		Amount:   amount,
		Notional: amount.Mul(price),
		FilledAt: quote.Timestamp,
	}, nil
}
