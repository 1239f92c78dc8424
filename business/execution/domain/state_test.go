package domain

import (
	"testing"
	"time"

	"github.com/mverab/flasharb/internal/fixedpoint"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		want bool
	}{
		{"idle_to_validated", StateIdle, StateValidated, true},
		{"validated_to_loan_requested", StateValidated, StateLoanRequested, true},
		{"loan_requested_to_buy", StateLoanRequested, StateBuyExecuted, true},
		{"buy_to_sell", StateBuyExecuted, StateSellExecuted, true},
		{"sell_to_repaid", StateSellExecuted, StateRepaid, true},
		{"any_stage_may_fail", StateLoanRequested, StateFailed, true},
		{"idle_may_fail", StateIdle, StateFailed, true},
		{"no_skipping_stages", StateIdle, StateLoanRequested, false},
		{"no_going_backwards", StateSellExecuted, StateBuyExecuted, false},
		{"repaid_is_terminal", StateRepaid, StateFailed, false},
		{"failed_is_terminal", StateFailed, StateValidated, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestContextTransitionRejectsIllegalStep(t *testing.T) {
	c := &Context{State: StateIdle}
	now := time.Now()

	if err := c.Transition(StateValidated, now); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if c.State != StateValidated {
		t.Errorf("state = %s, want validated", c.State)
	}

	if err := c.Transition(StateRepaid, now); err == nil {
		t.Error("skipping to repaid should be rejected")
	}
	if c.State != StateValidated {
		t.Errorf("failed transition mutated state to %s", c.State)
	}
}

func TestMetricsRecord(t *testing.T) {
	var m Metrics
	now := time.Now()

	m.Record(true, fixedpoint.MustParse("1.5"), fixedpoint.FromUnits(100), 100*time.Millisecond, now)
	if m.AvgExecutionTime != 100*time.Millisecond {
		t.Errorf("first avg = %s, want 100ms", m.AvgExecutionTime)
	}

	m.Record(true, fixedpoint.MustParse("0.5"), fixedpoint.FromUnits(50), 300*time.Millisecond, now)
	// Midpoint of the previous average and the new sample.
	if m.AvgExecutionTime != 200*time.Millisecond {
		t.Errorf("avg = %s, want 200ms", m.AvgExecutionTime)
	}

	m.Record(false, fixedpoint.Zero(), fixedpoint.Zero(), 200*time.Millisecond, now)

	if m.TotalExecutions != 3 || m.SuccessfulExecutions != 2 || m.FailedExecutions != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1",
			m.TotalExecutions, m.SuccessfulExecutions, m.FailedExecutions)
	}
	if m.TotalProfit.Cmp(fixedpoint.MustParse("2")) != 0 {
		t.Errorf("total profit = %s, want 2 (failures contribute nothing)", m.TotalProfit)
	}
	if m.TotalVolume.Cmp(fixedpoint.FromUnits(150)) != 0 {
		t.Errorf("total volume = %s, want 150", m.TotalVolume)
	}
	if got := m.SuccessRate(); got < 66.6 || got > 66.7 {
		t.Errorf("success rate = %.2f, want ~66.67", got)
	}
}

func TestSuccessRateEmpty(t *testing.T) {
	var m Metrics
	if got := m.SuccessRate(); got != 0 {
		t.Errorf("empty success rate = %.2f, want 0", got)
	}
}
