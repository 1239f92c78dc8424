package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	arbitrageApp "github.com/mverab/flasharb/business/arbitrage/app"
	arbitrageDomain "github.com/mverab/flasharb/business/arbitrage/domain"
	"github.com/mverab/flasharb/business/execution/domain"
	riskApp "github.com/mverab/flasharb/business/risk/app"
	"github.com/mverab/flasharb/internal/apperror"
	"github.com/mverab/flasharb/internal/fixedpoint"
	"github.com/mverab/flasharb/internal/logger"
	"github.com/mverab/flasharb/internal/statestore"
)

const (
	tracerName = "execution.coordinator"
	meterName  = "execution.coordinator"

	contextKeyPrefix = "exec:ctx:"
	metricsKey       = "exec:metrics"
)

// CoordinatorConfig holds execution settings.
type CoordinatorConfig struct {
	Fees             arbitrageDomain.FeeModel
	DefaultDeadline  time.Duration
	CrossChainFeeBps int64
}

type coordinatorMetrics struct {
	executions metric.Int64Counter
	duration   metric.Float64Histogram
}

// Coordinator drives one opportunity at a time through the flash-loan state
// machine: validate, borrow, buy, sell, repay. Every limit check runs before
// the first external call, so a rejected execution touches no collaborator.
// In-flight contexts and cumulative metrics are persisted in the state store.
type Coordinator struct {
	loans      FlashLoanProvider
	engine     TradingEngine
	bridge     Bridge
	gas        GasPricer
	risk       *riskApp.Manager
	calculator *arbitrageApp.ProfitCalculator
	store      statestore.Store
	config     CoordinatorConfig
	logger     logger.LoggerInterface
	tracer     trace.Tracer
	metrics    *coordinatorMetrics
	now        func() time.Time
	newID      func() string

	// One execution in flight at a time; a second request is rejected, not
	// queued.
	mu       sync.Mutex
	activeID string

	statsMu sync.Mutex
	stats   domain.Metrics
}

// NewCoordinator creates a Coordinator. bridge and gas may be nil when
// cross-chain execution is not configured.
func NewCoordinator(
	loans FlashLoanProvider,
	engine TradingEngine,
	bridge Bridge,
	gas GasPricer,
	risk *riskApp.Manager,
	calculator *arbitrageApp.ProfitCalculator,
	store statestore.Store,
	cfg CoordinatorConfig,
	log logger.LoggerInterface,
) (*Coordinator, error) {
	if err := cfg.Fees.Validate(); err != nil {
		return nil, err
	}
	if cfg.DefaultDeadline <= 0 {
		cfg.DefaultDeadline = domain.DefaultDeadline
	}

	co := &Coordinator{
		loans:      loans,
		engine:     engine,
		bridge:     bridge,
		gas:        gas,
		risk:       risk,
		calculator: calculator,
		store:      store,
		config:     cfg,
		logger:     log,
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
		newID:      uuid.NewString,
	}

	if err := co.initMetrics(); err != nil {
		return nil, err
	}

	return co, nil
}

func (co *Coordinator) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	co.metrics = &coordinatorMetrics{}

	co.metrics.executions, err = meter.Int64Counter(
		"executions_total",
		metric.WithDescription("Finished executions by outcome"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return err
	}

	co.metrics.duration, err = meter.Float64Histogram(
		"execution_duration_seconds",
		metric.WithDescription("Wall time of finished executions"),
		metric.WithUnit("s"),
	)
	return err
}

// Load restores persisted cumulative metrics.
func (co *Coordinator) Load(ctx context.Context) error {
	var stats domain.Metrics
	found, err := statestore.GetJSON(ctx, co.store, metricsKey, &stats)
	if err != nil {
		return err
	}
	if found {
		co.statsMu.Lock()
		co.stats = stats
		co.statsMu.Unlock()
	}
	return nil
}

// Execute runs one same-chain flash-loan arbitrage to a terminal state. The
// returned Result carries the recomputed realized profit on success and the
// failed leg on failure; the error mirrors Result for failed executions.
func (co *Coordinator) Execute(ctx context.Context, params domain.Params) (domain.Result, error) {
	ctx, span := co.tracer.Start(ctx, "execution.execute",
		trace.WithAttributes(attribute.String("asset", params.Opportunity.Asset.String())),
	)
	defer span.End()

	amount, expected, err := co.validate(params)
	if err != nil {
		return domain.Result{}, err
	}
	if err := co.checkProfitFloor(params, expected); err != nil {
		return domain.Result{}, err
	}

	if err := co.risk.CheckLimits(ctx, amount, params.SlippageBps, expected, fixedpoint.Zero()); err != nil {
		return domain.Result{}, err
	}

	release, err := co.acquire()
	if err != nil {
		return domain.Result{}, err
	}
	defer release()

	return co.run(ctx, params, amount, fixedpoint.Zero())
}

// ExecuteBatch runs executions sequentially and stops at the first failure,
// returning the results gathered so far alongside the error.
func (co *Coordinator) ExecuteBatch(ctx context.Context, batch []domain.Params) ([]domain.Result, error) {
	results := make([]domain.Result, 0, len(batch))
	for i, params := range batch {
		res, err := co.Execute(ctx, params)
		if err != nil {
			return results, apperror.Wrap(err, apperror.CodeTradeExecutionFailed,
				fmt.Sprintf("batch aborted at entry %d", i))
		}
		results = append(results, res)
	}
	return results, nil
}

// ExecuteCrossChain runs an execution whose legs settle on different chains,
// bridging the position between the buy and the sell. The expected profit is
// discounted by the bridge fee and the destination gas price is gated before
// anything runs.
func (co *Coordinator) ExecuteCrossChain(ctx context.Context, params domain.Params) (domain.Result, error) {
	ctx, span := co.tracer.Start(ctx, "execution.execute_cross_chain",
		trace.WithAttributes(attribute.String("asset", params.Opportunity.Asset.String())),
	)
	defer span.End()

	opp := params.Opportunity
	if opp.BuyVenue.Chain() == opp.SellVenue.Chain() {
		return domain.Result{}, apperror.Validation("venues settle on the same chain; use Execute")
	}
	if co.bridge == nil {
		return domain.Result{}, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("no bridge configured for cross-chain execution"))
	}

	amount, expected, err := co.validate(params)
	if err != nil {
		return domain.Result{}, err
	}

	// The bridge takes its cut of the sell notional.
	bridgeFee := amount.Mul(opp.SellPrice).MulBps(co.config.CrossChainFeeBps)
	expected = expected.Sub(bridgeFee)
	if err := co.checkProfitFloor(params, expected); err != nil {
		return domain.Result{}, err
	}

	gasPrice := fixedpoint.Zero()
	if co.gas != nil {
		gasPrice, err = co.gas.GasPrice(ctx)
		if err != nil {
			return domain.Result{}, apperror.Wrap(err, apperror.CodeGasEstimationFailed,
				"destination gas price unavailable")
		}
	}

	if err := co.risk.CheckLimits(ctx, amount, params.SlippageBps, expected, gasPrice); err != nil {
		return domain.Result{}, err
	}

	release, err := co.acquire()
	if err != nil {
		return domain.Result{}, err
	}
	defer release()

	return co.run(ctx, params, amount, bridgeFee)
}

// validate performs all local checks and resolves the trade amount. Nothing
// here touches a collaborator.
func (co *Coordinator) validate(params domain.Params) (amount, expected fixedpoint.Value, err error) {
	opp := params.Opportunity

	if !opp.Asset.Valid() {
		return amount, expected, apperror.New(apperror.CodeUnsupportedAsset,
			apperror.WithContextf("asset %s", opp.Asset))
	}
	if !opp.BuyVenue.Valid() || !opp.SellVenue.Valid() {
		return amount, expected, apperror.New(apperror.CodeUnsupportedVenue,
			apperror.WithContextf("venues %s -> %s", opp.BuyVenue, opp.SellVenue))
	}
	if opp.BuyPrice.Sign() <= 0 || opp.SellPrice.Sign() <= 0 {
		return amount, expected, apperror.Validation("opportunity prices must be positive")
	}
	if opp.Expired(co.now()) {
		return amount, expected, apperror.New(apperror.CodeOpportunityExpired,
			apperror.WithContextf("expired at %s", opp.ExpiryTime.Format(time.RFC3339)))
	}
	if params.MinProfit.Sign() < 0 {
		return amount, expected, apperror.Validation("min profit cannot be negative")
	}

	amount = params.Amount
	if amount.Sign() == 0 {
		amount = co.risk.SizePosition(opp.ConfidenceScore, params.RiskTolerance)
	}
	if amount.Sign() <= 0 {
		return amount, expected, apperror.Validation("trade amount must be positive")
	}

	expected = co.calculator.NetProfit(opp.BuyPrice, opp.SellPrice, amount, co.config.Fees)
	return amount, expected, nil
}

// profitFloor is the effective minimum profit for one execution: the
// caller's floor or the risk threshold, whichever is higher.
func (co *Coordinator) profitFloor(params domain.Params) fixedpoint.Value {
	return params.MinProfit.Max(co.risk.Parameters().MinProfitThreshold)
}

// checkProfitFloor gates the expected profit before anything runs.
func (co *Coordinator) checkProfitFloor(params domain.Params, expected fixedpoint.Value) error {
	if floor := co.profitFloor(params); expected.Cmp(floor) < 0 {
		return apperror.New(apperror.CodeInsufficientProfit,
			apperror.WithContextf("expected %s below floor %s", expected, floor))
	}
	return nil
}

// acquire claims the single execution slot.
func (co *Coordinator) acquire() (func(), error) {
	co.mu.Lock()
	defer co.mu.Unlock()

	if co.activeID != "" {
		return nil, apperror.New(apperror.CodeExecutionInProgress,
			apperror.WithContextf("execution %s still in flight", co.activeID))
	}

	co.activeID = co.newID()

	return func() {
		co.mu.Lock()
		co.activeID = ""
		co.mu.Unlock()
	}, nil
}

// run drives the state machine. The caller holds the execution slot; amount
// has passed every risk gate. bridgeFee is zero for same-chain executions.
func (co *Coordinator) run(ctx context.Context, params domain.Params, amount, bridgeFee fixedpoint.Value) (domain.Result, error) {
	opp := params.Opportunity
	started := co.now()

	deadline := params.Deadline
	if deadline <= 0 {
		deadline = co.config.DefaultDeadline
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	co.mu.Lock()
	id := co.activeID
	co.mu.Unlock()

	ec := &domain.Context{
		ID:        id,
		State:     domain.StateIdle,
		Asset:     opp.Asset,
		BuyVenue:  opp.BuyVenue,
		SellVenue: opp.SellVenue,
		Amount:    amount,
		StartedAt: started,
		UpdatedAt: started,
	}

	if err := co.advance(ctx, ec, domain.StateValidated); err != nil {
		return co.fail(ctx, ec, started, err)
	}

	// Borrow the quote notional for the buy leg. The provider's fee is
	// priced dynamically from expected profitability.
	loanAmount := amount.Mul(opp.BuyPrice)
	expected := co.calculator.NetProfit(opp.BuyPrice, opp.SellPrice, amount, co.config.Fees)
	loanFeeBps := co.risk.DynamicFeeBps(loanAmount, expected)

	loanID, err := co.loans.Request(ctx, opp.Asset, loanAmount, loanFeeBps)
	if err != nil {
		return co.fail(ctx, ec, started, co.stepError(ctx, err, apperror.CodeFlashLoanFailed, apperror.LegNone))
	}
	ec.LoanID = loanID
	if err := co.advance(ctx, ec, domain.StateLoanRequested); err != nil {
		return co.fail(ctx, ec, started, err)
	}

	buy, err := co.engine.Buy(ctx, opp.BuyVenue, opp.Asset, amount, opp.BuyPrice)
	if err != nil {
		return co.fail(ctx, ec, started, co.stepError(ctx, err, apperror.CodeTradeExecutionFailed, apperror.LegBuy))
	}
	if err := co.advance(ctx, ec, domain.StateBuyExecuted); err != nil {
		return co.fail(ctx, ec, started, err)
	}

	if bridgeFee.Sign() > 0 {
		from, to := opp.BuyVenue.Chain(), opp.SellVenue.Chain()
		if err := co.bridge.Transfer(ctx, opp.Asset, amount, from, to); err != nil {
			return co.fail(ctx, ec, started, co.stepError(ctx, err, apperror.CodeCrossChainTransferFailed, apperror.LegTransfer))
		}
	}

	sell, err := co.engine.Sell(ctx, opp.SellVenue, opp.Asset, amount, opp.SellPrice)
	if err != nil {
		return co.fail(ctx, ec, started, co.stepError(ctx, err, apperror.CodeTradeExecutionFailed, apperror.LegSell))
	}
	if err := co.advance(ctx, ec, domain.StateSellExecuted); err != nil {
		return co.fail(ctx, ec, started, err)
	}

	// Realized profit comes from actual fills, not the quoted opportunity.
	// A fill-level shortfall below the profit floor aborts before repayment
	// so the loan reverts instead of settling at a loss.
	realized := co.calculator.NetProfit(buy.Price, sell.Price, amount, co.config.Fees).Sub(bridgeFee)
	if floor := co.profitFloor(params); realized.Cmp(floor) < 0 {
		res, err := co.fail(ctx, ec, started, apperror.New(apperror.CodeInsufficientProfit,
			apperror.WithContextf("realized %s below floor %s", realized, floor)))
		res.Buy = buy
		res.Sell = sell
		res.TradesExecuted = 2
		res.TotalVolume = buy.Notional.Add(sell.Notional)
		res.RealizedProfit = realized
		return res, err
	}

	repayAmount := loanAmount.Add(loanAmount.MulBps(loanFeeBps))
	if err := co.loans.Repay(ctx, loanID, repayAmount); err != nil {
		return co.fail(ctx, ec, started, co.stepError(ctx, err, apperror.CodeFlashLoanFailed, apperror.LegNone))
	}
	if err := co.advance(ctx, ec, domain.StateRepaid); err != nil {
		return co.fail(ctx, ec, started, err)
	}

	volume := buy.Notional.Add(sell.Notional)
	duration := co.now().Sub(started)
	co.finish(ctx, ec, true, realized, volume, duration)

	co.logger.Info(ctx, "execution repaid",
		"id", ec.ID,
		"asset", opp.Asset.String(),
		"realized_profit", realized.String(),
		"duration", duration.String(),
	)

	return domain.Result{
		ID:             ec.ID,
		FinalState:     domain.StateRepaid,
		Buy:            buy,
		Sell:           sell,
		TradesExecuted: 2,
		TotalVolume:    volume,
		RealizedProfit: realized,
		Duration:       duration,
	}, nil
}

// advance transitions the context and persists the new state.
func (co *Coordinator) advance(ctx context.Context, ec *domain.Context, to domain.State) error {
	if err := ctx.Err(); err != nil {
		return apperror.New(apperror.CodeDeadlineExceeded,
			apperror.WithContextf("deadline hit before %s", to),
			apperror.WithCause(err))
	}
	if err := ec.Transition(to, co.now()); err != nil {
		return err
	}
	return statestore.SetJSON(ctx, co.store, contextKeyPrefix+ec.ID, ec)
}

// stepError normalizes a collaborator failure: deadline expiry wins over the
// step's own code, and the leg tag records where the execution died.
func (co *Coordinator) stepError(ctx context.Context, err error, code apperror.Code, leg apperror.Leg) error {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil ||
		apperror.IsCode(err, apperror.CodeDeadlineExceeded) {
		code = apperror.CodeDeadlineExceeded
	}
	return apperror.New(code, apperror.WithLeg(leg), apperror.WithCause(err))
}

// fail drives the context to the terminal failed state, records metrics and
// drops the persisted record.
func (co *Coordinator) fail(ctx context.Context, ec *domain.Context, started time.Time, cause error) (domain.Result, error) {
	_ = ec.Transition(domain.StateFailed, co.now())

	duration := co.now().Sub(started)
	co.finish(ctx, ec, false, fixedpoint.Zero(), fixedpoint.Zero(), duration)

	co.logger.Warn(ctx, "execution failed",
		"id", ec.ID,
		"asset", ec.Asset.String(),
		"reason", cause.Error(),
	)

	return domain.Result{
		ID:         ec.ID,
		FinalState: domain.StateFailed,
		FailedLeg:  apperror.GetLeg(cause),
		Duration:   duration,
	}, cause
}

// finish updates cumulative metrics and removes the in-flight record. Store
// errors here are logged, not returned: the execution outcome stands.
func (co *Coordinator) finish(ctx context.Context, ec *domain.Context, success bool, profit, volume fixedpoint.Value, duration time.Duration) {
	status := "failed"
	if success {
		status = "repaid"
	}
	co.metrics.executions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)))
	co.metrics.duration.Record(ctx, duration.Seconds())

	co.statsMu.Lock()
	co.stats.Record(success, profit, volume, duration, co.now())
	stats := co.stats
	co.statsMu.Unlock()

	if err := statestore.SetJSON(ctx, co.store, metricsKey, stats); err != nil {
		co.logger.Error(ctx, "persist execution metrics", "error", err.Error())
	}
	if err := co.store.Remove(ctx, contextKeyPrefix+ec.ID); err != nil {
		co.logger.Error(ctx, "remove execution context", "error", err.Error())
	}
}

// MetricsSnapshot returns a copy of the cumulative execution metrics.
func (co *Coordinator) MetricsSnapshot() domain.Metrics {
	co.statsMu.Lock()
	defer co.statsMu.Unlock()
	return co.stats
}

// ResetMetrics zeroes the cumulative metrics, in memory and in the store.
func (co *Coordinator) ResetMetrics(ctx context.Context) error {
	co.statsMu.Lock()
	co.stats = domain.Metrics{}
	co.statsMu.Unlock()
	return statestore.SetJSON(ctx, co.store, metricsKey, domain.Metrics{})
}
