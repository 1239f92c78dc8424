// Package evm provides the Ethereum gas oracle used by the cross-chain
// execution path.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mverab/flasharb/internal/apperror"
	"github.com/mverab/flasharb/internal/cache"
	"github.com/mverab/flasharb/internal/circuitbreaker"
	"github.com/mverab/flasharb/internal/logger"
)

const (
	tracerName = "market.evm"
	meterName  = "market.evm"
)

// GasOracleConfig holds configuration for the gas oracle.
type GasOracleConfig struct {
	RPCURL   string        // Ethereum RPC endpoint
	CacheTTL time.Duration // How long to cache gas prices
}

// DefaultGasOracleConfig returns sensible defaults.
func DefaultGasOracleConfig(rpcURL string) GasOracleConfig {
	return GasOracleConfig{
		RPCURL:   rpcURL,
		CacheTTL: 12 * time.Second, // ~1 block
	}
}

// gasOracleMetrics holds OTEL metric instruments.
type gasOracleMetrics struct {
	fetches     metric.Int64Counter
	gasGwei     metric.Float64Gauge
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
}

// GasOracle reads suggested gas prices from an Ethereum node with caching
// and a circuit breaker. The execution coordinator compares the result to
// the risk manager's max gas price gate before taking the cross-chain leg.
type GasOracle struct {
	config GasOracleConfig
	logger logger.LoggerInterface

	client   *ethclient.Client
	clientMu sync.RWMutex

	priceCache *cache.Cache[string, *big.Int]

	cb *circuitbreaker.CircuitBreaker[*big.Int]

	tracer  trace.Tracer
	metrics *gasOracleMetrics
}

// NewGasOracle creates a new gas oracle instance.
func NewGasOracle(cfg GasOracleConfig, log logger.LoggerInterface) (*GasOracle, error) {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 12 * time.Second
	}

	g := &GasOracle{
		config:     cfg,
		logger:     log,
		priceCache: cache.New[string, *big.Int](5 * time.Minute),
		cb:         circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("gas-oracle")),
		tracer:     otel.Tracer(tracerName),
	}

	if err := g.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return g, nil
}

func (g *GasOracle) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	g.metrics = &gasOracleMetrics{}

	g.metrics.fetches, err = meter.Int64Counter(
		"gas_price_fetches_total",
		metric.WithDescription("Total gas price fetch attempts"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	g.metrics.gasGwei, err = meter.Float64Gauge(
		"gas_price_gwei",
		metric.WithDescription("Current gas price in gwei"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return err
	}

	g.metrics.cacheHits, err = meter.Int64Counter(
		"gas_cache_hits_total",
		metric.WithDescription("Gas price cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	g.metrics.cacheMisses, err = meter.Int64Counter(
		"gas_cache_misses_total",
		metric.WithDescription("Gas price cache misses"),
		metric.WithUnit("{miss}"),
	)
	return err
}

// Connect establishes connection to the Ethereum node.
func (g *GasOracle) Connect(ctx context.Context) error {
	ctx, span := g.tracer.Start(ctx, "gas.connect",
		trace.WithAttributes(attribute.String("url", g.config.RPCURL)),
	)
	defer span.End()

	client, err := ethclient.DialContext(ctx, g.config.RPCURL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("connect gas oracle"))
	}

	g.clientMu.Lock()
	g.client = client
	g.clientMu.Unlock()

	span.SetStatus(codes.Ok, "connected")
	g.logger.Info(ctx, "gas oracle connected", "url", g.config.RPCURL)

	return nil
}

// GasPrice returns the current suggested gas price in wei, cached for
// roughly one block.
func (g *GasOracle) GasPrice(ctx context.Context) (*big.Int, error) {
	ctx, span := g.tracer.Start(ctx, "gas.price")
	defer span.End()

	if wei, found := g.priceCache.Get(ctx, "current"); found {
		g.metrics.cacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		return new(big.Int).Set(wei), nil
	}

	g.metrics.cacheMisses.Add(ctx, 1)
	g.metrics.fetches.Add(ctx, 1)

	g.clientMu.RLock()
	client := g.client
	g.clientMu.RUnlock()

	if client == nil {
		err := apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithContext("gas oracle not connected"))
		span.RecordError(err)
		return nil, err
	}

	wei, err := g.cb.Execute(func() (*big.Int, error) {
		return client.SuggestGasPrice(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, apperror.Wrap(err, apperror.CodeEthereumRPCError, "suggest gas price")
	}

	g.priceCache.Set(ctx, "current", new(big.Int).Set(wei), g.config.CacheTTL)

	gwei, _ := new(big.Float).Quo(
		new(big.Float).SetInt(wei),
		big.NewFloat(1e9),
	).Float64()
	g.metrics.gasGwei.Record(ctx, gwei)

	span.SetAttributes(attribute.Float64("gwei", gwei))
	span.SetStatus(codes.Ok, "fetched")

	return wei, nil
}

// Healthy reports whether the breaker is closed.
func (g *GasOracle) Healthy() bool {
	return g.cb.Healthy()
}

// Close closes the gas oracle.
func (g *GasOracle) Close() error {
	g.clientMu.Lock()
	defer g.clientMu.Unlock()

	if g.client != nil {
		g.client.Close()
		g.client = nil
	}

	g.priceCache.Close()

	return nil
}
