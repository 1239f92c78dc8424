// Package app contains the risk management service: position sizing,
// pre-trade limit checks and the emergency stop.
package app

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mverab/flasharb/business/risk/domain"
	"github.com/mverab/flasharb/internal/apperror"
	"github.com/mverab/flasharb/internal/fixedpoint"
	"github.com/mverab/flasharb/internal/logger"
	"github.com/mverab/flasharb/internal/statestore"
)

const (
	tracerName = "risk.manager"
	meterName  = "risk.manager"

	paramsKey = "risk:params"
)

// Sizing constants. Confidence and tolerance are clamped before use so a
// wild input can never size past the position limit.
const (
	minConfidence    = 10
	maxConfidence    = 100
	minRiskTolerance = 1
	maxRiskTolerance = 10

	// Kelly sizing assumes a flat historical win rate until enough fills
	// exist to measure one.
	kellyWinProbPct = 80
)

// Dynamic fee bounds in basis points.
const (
	dynamicFeeBaseBps = 9
	dynamicFeeMinBps  = 5
	dynamicFeeMaxBps  = 15
)

type paramsRecord struct {
	MaxPositionSize    string    `json:"max_position_size"`
	MaxSlippageBps     int64     `json:"max_slippage_bps"`
	MinProfitThreshold string    `json:"min_profit_threshold"`
	MaxGasPrice        string    `json:"max_gas_price"`
	EmergencyStop      bool      `json:"emergency_stop"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type managerMetrics struct {
	checks     metric.Int64Counter
	rejections metric.Int64Counter
}

// Manager owns the live risk parameters and gates every trade against them.
// The authoritative copy is persisted in the state store so limits survive
// restarts; updates are last-write-wins from the single admin writer.
type Manager struct {
	store   statestore.Store
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *managerMetrics

	mu     sync.RWMutex
	params domain.Parameters
}

// NewManager creates a Manager seeded with initial parameters. Call Load
// before serving checks so persisted limits take precedence.
func NewManager(store statestore.Store, initial domain.Parameters, log logger.LoggerInterface) (*Manager, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		store:  store,
		logger: log,
		tracer: otel.Tracer(tracerName),
		params: initial,
	}

	if err := m.initMetrics(); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Manager) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	m.metrics = &managerMetrics{}

	m.metrics.checks, err = meter.Int64Counter(
		"risk_checks_total",
		metric.WithDescription("Pre-trade limit checks performed"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return err
	}

	m.metrics.rejections, err = meter.Int64Counter(
		"risk_rejections_total",
		metric.WithDescription("Pre-trade checks that rejected the trade"),
		metric.WithUnit("{rejection}"),
	)
	return err
}

// Load restores persisted parameters, or seeds the store with the initial
// set on first startup.
func (m *Manager) Load(ctx context.Context) error {
	var rec paramsRecord
	found, err := statestore.GetJSON(ctx, m.store, paramsKey, &rec)
	if err != nil {
		return err
	}

	if !found {
		m.mu.RLock()
		current := m.params
		m.mu.RUnlock()
		return m.persist(ctx, current)
	}

	params, err := rec.parameters()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.params = params
	m.mu.Unlock()

	m.logger.Info(ctx, "risk parameters restored",
		"max_position_size", params.MaxPositionSize.String(),
		"emergency_stop", params.EmergencyStop,
	)
	return nil
}

func (r paramsRecord) parameters() (domain.Parameters, error) {
	var p domain.Parameters
	var err error
	if p.MaxPositionSize, err = fixedpoint.Parse(r.MaxPositionSize); err != nil {
		return domain.Parameters{}, apperror.New(apperror.CodeStateStoreError,
			apperror.WithContext("corrupt max_position_size"), apperror.WithCause(err))
	}
	if p.MinProfitThreshold, err = fixedpoint.Parse(r.MinProfitThreshold); err != nil {
		return domain.Parameters{}, apperror.New(apperror.CodeStateStoreError,
			apperror.WithContext("corrupt min_profit_threshold"), apperror.WithCause(err))
	}
	if p.MaxGasPrice, err = fixedpoint.Parse(r.MaxGasPrice); err != nil {
		return domain.Parameters{}, apperror.New(apperror.CodeStateStoreError,
			apperror.WithContext("corrupt max_gas_price"), apperror.WithCause(err))
	}
	p.MaxSlippageBps = r.MaxSlippageBps
	p.EmergencyStop = r.EmergencyStop
	return p, p.Validate()
}

func (m *Manager) persist(ctx context.Context, p domain.Parameters) error {
	return statestore.SetJSON(ctx, m.store, paramsKey, paramsRecord{
		MaxPositionSize:    p.MaxPositionSize.String(),
		MaxSlippageBps:     p.MaxSlippageBps,
		MinProfitThreshold: p.MinProfitThreshold.String(),
		MaxGasPrice:        p.MaxGasPrice.String(),
		EmergencyStop:      p.EmergencyStop,
		UpdatedAt:          time.Now().UTC(),
	})
}

// Parameters returns the current risk limits.
func (m *Manager) Parameters() domain.Parameters {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.params
}

// SetParameters replaces the live limits and persists them.
func (m *Manager) SetParameters(ctx context.Context, p domain.Parameters) error {
	ctx, span := m.tracer.Start(ctx, "risk.set_parameters")
	defer span.End()

	if err := p.Validate(); err != nil {
		return err
	}
	if err := m.persist(ctx, p); err != nil {
		return err
	}

	m.mu.Lock()
	m.params = p
	m.mu.Unlock()

	m.logger.Info(ctx, "risk parameters updated",
		"max_position_size", p.MaxPositionSize.String(),
		"max_slippage_bps", p.MaxSlippageBps,
		"min_profit_threshold", p.MinProfitThreshold.String(),
	)
	return nil
}

// SetEmergencyStop flips the kill switch. While engaged, every limit check
// fails before any external call is made.
func (m *Manager) SetEmergencyStop(ctx context.Context, stop bool) error {
	m.mu.Lock()
	p := m.params
	p.EmergencyStop = stop
	m.params = p
	m.mu.Unlock()

	if stop {
		m.logger.Warn(ctx, "emergency stop engaged")
	} else {
		m.logger.Info(ctx, "emergency stop released")
	}
	return m.persist(ctx, p)
}

// EmergencyStopped reports whether the kill switch is engaged.
func (m *Manager) EmergencyStopped() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.params.EmergencyStop
}

// SizePosition sizes a trade from opportunity confidence and the operator's
// risk tolerance. The base position is a tenth of the limit, scaled by
// confidence (clamped to 10..100) and tolerance (clamped to 1..10, neutral
// at 5), and capped at the position limit.
func (m *Manager) SizePosition(confidence, riskTolerance int64) fixedpoint.Value {
	p := m.Parameters()

	confidence = clamp(confidence, minConfidence, maxConfidence)
	riskTolerance = clamp(riskTolerance, minRiskTolerance, maxRiskTolerance)

	base, _ := p.MaxPositionSize.DivInt(10)
	amount, _ := base.MulInt(confidence).DivInt(100)
	amount, _ = amount.MulInt(riskTolerance).DivInt(5)

	return amount.Min(p.MaxPositionSize)
}

// KellySize sizes a trade with the Kelly criterion from the buy price and
// the expected net profit per unit. Non-positive edges size to zero; the
// result never exceeds the position limit.
func (m *Manager) KellySize(buyPrice, netPerUnit fixedpoint.Value) fixedpoint.Value {
	if buyPrice.Sign() <= 0 || netPerUnit.Sign() <= 0 {
		return fixedpoint.Zero()
	}

	p := m.Parameters()

	// Odds as a whole percentage of the buy price.
	bps, err := netPerUnit.Ratio(buyPrice)
	if err != nil {
		return fixedpoint.Zero()
	}
	odds := bps / 100
	if odds <= 0 {
		return fixedpoint.Zero()
	}

	// kelly% = (odds * p - (100 - p)) / odds, with p the win probability.
	kelly := (odds*kellyWinProbPct - (100 - kellyWinProbPct)) / odds
	if kelly <= 0 {
		return fixedpoint.Zero()
	}
	if kelly > 100 {
		kelly = 100
	}

	amount, _ := p.MaxPositionSize.MulInt(kelly).DivInt(100)
	return amount
}

// CheckLimits gates a trade against the live limits. The emergency stop is
// checked first so a stopped engine rejects before anything else runs. A
// zero gasPrice skips the gas gate (same-chain trades carry no gas quote).
func (m *Manager) CheckLimits(ctx context.Context, amount fixedpoint.Value, slippageBps int64, expectedProfit, gasPrice fixedpoint.Value) error {
	ctx, span := m.tracer.Start(ctx, "risk.check_limits",
		trace.WithAttributes(attribute.String("amount", amount.String())),
	)
	defer span.End()

	m.metrics.checks.Add(ctx, 1)

	p := m.Parameters()

	if p.EmergencyStop {
		return m.reject(ctx, apperror.CodeEmergencyStopActivated,
			apperror.WithContext("trading halted by emergency stop"))
	}
	if amount.Cmp(p.MaxPositionSize) > 0 {
		return m.reject(ctx, apperror.CodeRiskLimitExceeded,
			apperror.WithContextf("amount %s exceeds position limit %s",
				amount, p.MaxPositionSize))
	}
	if slippageBps > p.MaxSlippageBps {
		return m.reject(ctx, apperror.CodeSlippageTooHigh,
			apperror.WithContextf("slippage %d bps exceeds limit %d bps",
				slippageBps, p.MaxSlippageBps))
	}
	if expectedProfit.Cmp(p.MinProfitThreshold) < 0 {
		return m.reject(ctx, apperror.CodeInsufficientProfit,
			apperror.WithContextf("expected profit %s below threshold %s",
				expectedProfit, p.MinProfitThreshold))
	}
	if gasPrice.Sign() > 0 && gasPrice.Cmp(p.MaxGasPrice) > 0 {
		return m.reject(ctx, apperror.CodeRiskLimitExceeded,
			apperror.WithContextf("gas price %s exceeds limit %s",
				gasPrice, p.MaxGasPrice))
	}

	return nil
}

func (m *Manager) reject(ctx context.Context, code apperror.Code, opts ...apperror.Option) error {
	err := apperror.New(code, opts...)
	m.metrics.rejections.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", string(code))))
	m.logger.Warn(ctx, "trade rejected", "reason", string(code), "detail", err.Error())
	return err
}

// DynamicFeeBps prices the flash-loan fee from trade profitability: more
// profitable trades pay a higher fee, bounded to 5..15 bps.
func (m *Manager) DynamicFeeBps(amount, expectedProfit fixedpoint.Value) int64 {
	fee := int64(dynamicFeeBaseBps)

	if amount.Sign() > 0 && expectedProfit.Sign() > 0 {
		ratioBps, err := expectedProfit.Ratio(amount)
		if err == nil {
			extra := ratioBps / 1000
			if extra > 6 {
				extra = 6
			}
			if extra > 0 {
				fee += extra
			}
		}
	}

	return clamp(fee, dynamicFeeMinBps, dynamicFeeMaxBps)
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
