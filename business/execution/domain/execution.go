package domain

import (
	"time"

	arbitrageDomain "github.com/mverab/flasharb/business/arbitrage/domain"
	marketDomain "github.com/mverab/flasharb/business/market/domain"
	"github.com/mverab/flasharb/internal/apperror"
	"github.com/mverab/flasharb/internal/fixedpoint"
)

// DefaultDeadline bounds one execution when the caller sets none.
const DefaultDeadline = 30 * time.Second

// Params describes one requested execution. A zero Amount lets the risk
// manager size the position; a zero Deadline applies DefaultDeadline. A
// positive MinProfit raises the profit floor above the risk manager's
// threshold for this execution only; it can never lower it.
type Params struct {
	Opportunity   arbitrageDomain.Opportunity
	Amount        fixedpoint.Value
	MinProfit     fixedpoint.Value
	RiskTolerance int64
	SlippageBps   int64
	Deadline      time.Duration
}

// TradeResult is one filled leg.
type TradeResult struct {
	Venue    marketDomain.Venue
	Price    fixedpoint.Value
	Amount   fixedpoint.Value
	Notional fixedpoint.Value
	FilledAt time.Time
}

// Context is the persisted record of an in-flight execution. It survives in
// the state store until the execution reaches a terminal state.
type Context struct {
	ID        string             `json:"id"`
	State     State              `json:"state"`
	Asset     marketDomain.Asset `json:"asset"`
	BuyVenue  marketDomain.Venue `json:"buy_venue"`
	SellVenue marketDomain.Venue `json:"sell_venue"`
	Amount    fixedpoint.Value   `json:"amount"`
	LoanID    string             `json:"loan_id,omitempty"`
	StartedAt time.Time          `json:"started_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Transition advances the context, rejecting illegal steps.
func (c *Context) Transition(to State, now time.Time) error {
	if !CanTransition(c.State, to) {
		return apperror.New(apperror.CodeInternalError,
			apperror.WithContextf("illegal transition %s -> %s", c.State, to))
	}
	c.State = to
	c.UpdatedAt = now
	return nil
}

// Result is the outcome of one execution. RealizedProfit is recomputed from
// actual fills and is unfloored: a losing execution reports the loss.
// TotalVolume is the combined buy and sell notional of the filled legs.
type Result struct {
	ID             string
	FinalState     State
	Buy            TradeResult
	Sell           TradeResult
	TradesExecuted int
	TotalVolume    fixedpoint.Value
	RealizedProfit fixedpoint.Value
	FailedLeg      apperror.Leg
	Duration       time.Duration
}

// Metrics are cumulative execution statistics, persisted across restarts.
// TotalVolume counts settled notional only; reverted executions move nothing.
type Metrics struct {
	TotalExecutions      int64            `json:"total_executions"`
	SuccessfulExecutions int64            `json:"successful_executions"`
	FailedExecutions     int64            `json:"failed_executions"`
	TotalProfit          fixedpoint.Value `json:"total_profit"`
	TotalVolume          fixedpoint.Value `json:"total_volume"`
	AvgExecutionTime     time.Duration    `json:"avg_execution_time"`
	LastExecutionAt      time.Time        `json:"last_execution_at"`
}

// Record folds one finished execution into the metrics. The running average
// is a simple midpoint of the previous average and the new sample, weighting
// recent executions more heavily.
func (m *Metrics) Record(success bool, profit, volume fixedpoint.Value, duration time.Duration, at time.Time) {
	m.TotalExecutions++
	m.TotalVolume = m.TotalVolume.Add(volume)
	if success {
		m.SuccessfulExecutions++
		m.TotalProfit = m.TotalProfit.Add(profit)
	} else {
		m.FailedExecutions++
	}

	if m.AvgExecutionTime == 0 {
		m.AvgExecutionTime = duration
	} else {
		m.AvgExecutionTime = (m.AvgExecutionTime + duration) / 2
	}
	m.LastExecutionAt = at
}

// SuccessRate returns successful executions as a percentage, 0 when empty.
func (m *Metrics) SuccessRate() float64 {
	if m.TotalExecutions == 0 {
		return 0
	}
	return float64(m.SuccessfulExecutions) * 100 / float64(m.TotalExecutions)
}
