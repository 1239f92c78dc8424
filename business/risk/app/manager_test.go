package app

import (
	"context"
	"io"
	"testing"

	"github.com/mverab/flasharb/business/risk/domain"
	"github.com/mverab/flasharb/internal/apperror"
	"github.com/mverab/flasharb/internal/fixedpoint"
	"github.com/mverab/flasharb/internal/logger"
	"github.com/mverab/flasharb/internal/statestore"
)

func newManager(t *testing.T) (*Manager, statestore.Store) {
	t.Helper()

	store := statestore.NewMemory()
	log := logger.New(io.Discard, logger.LevelError, "test", nil)

	m, err := NewManager(store, domain.DefaultParameters(), log)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return m, store
}

func TestSizePosition(t *testing.T) {
	m, _ := newManager(t)

	// max = 100, base = 10.
	tests := []struct {
		name       string
		confidence int64
		tolerance  int64
		want       string
	}{
		{"full_confidence_neutral_tolerance", 100, 5, "10"},
		{"half_confidence_neutral_tolerance", 50, 5, "5"},
		{"full_confidence_max_tolerance", 100, 10, "20"},
		{"full_confidence_min_tolerance", 100, 1, "2"},
		{"confidence_clamped_low", 0, 5, "1"},
		{"confidence_clamped_high", 250, 5, "10"},
		{"tolerance_clamped_low", 100, -3, "2"},
		{"tolerance_clamped_high", 100, 99, "20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.SizePosition(tt.confidence, tt.tolerance)
			if want := fixedpoint.MustParse(tt.want); got.Cmp(want) != 0 {
				t.Errorf("SizePosition(%d, %d) = %s, want %s",
					tt.confidence, tt.tolerance, got, tt.want)
			}
		})
	}
}

func TestSizePositionNeverExceedsLimit(t *testing.T) {
	m, _ := newManager(t)

	got := m.SizePosition(100, 10)
	if limit := m.Parameters().MaxPositionSize; got.Cmp(limit) > 0 {
		t.Errorf("sized %s past limit %s", got, limit)
	}
}

func TestKellySize(t *testing.T) {
	m, _ := newManager(t)

	tests := []struct {
		name       string
		buyPrice   string
		netPerUnit string
		want       string
	}{
		// odds = 5% of buy, kelly = (5*80 - 20)/5 = 76% of 100.
		{"five_percent_edge", "1.00", "0.05", "76"},
		// odds = 1%, kelly = (80 - 20)/1 = 60 -> capped below 100.
		{"one_percent_edge", "1.00", "0.01", "60"},
		// odds rounds to 0% -> no position.
		{"sub_percent_edge", "1.00", "0.005", "0"},
		{"no_edge", "1.00", "0", "0"},
		{"negative_edge", "1.00", "-0.05", "0"},
		{"zero_buy_price", "0", "0.05", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.KellySize(fixedpoint.MustParse(tt.buyPrice), fixedpoint.MustParse(tt.netPerUnit))
			if want := fixedpoint.MustParse(tt.want); got.Cmp(want) != 0 {
				t.Errorf("KellySize(%s, %s) = %s, want %s",
					tt.buyPrice, tt.netPerUnit, got, tt.want)
			}
		})
	}
}

func TestCheckLimits(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		amount   string
		slippage int64
		profit   string
		gas      string
		wantCode apperror.Code
	}{
		{"within_all_limits", "50", 50, "1", "0", ""},
		{"at_position_limit", "100", 50, "1", "0", ""},
		{"over_position_limit", "100.00000001", 50, "1", "0", apperror.CodeRiskLimitExceeded},
		{"over_slippage_limit", "50", 101, "1", "0", apperror.CodeSlippageTooHigh},
		{"below_profit_threshold", "50", 50, "0.000009", "0", apperror.CodeInsufficientProfit},
		{"over_gas_limit", "50", 50, "1", "0.02", apperror.CodeRiskLimitExceeded},
		{"gas_gate_skipped_when_zero", "50", 50, "1", "0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newManager(t)

			err := m.CheckLimits(ctx,
				fixedpoint.MustParse(tt.amount),
				tt.slippage,
				fixedpoint.MustParse(tt.profit),
				fixedpoint.MustParse(tt.gas),
			)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("CheckLimits: %v", err)
				}
				return
			}
			if !apperror.IsCode(err, tt.wantCode) {
				t.Errorf("CheckLimits error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestEmergencyStopRejectsFirst(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	if err := m.SetEmergencyStop(ctx, true); err != nil {
		t.Fatalf("SetEmergencyStop: %v", err)
	}
	if !m.EmergencyStopped() {
		t.Fatal("emergency stop not engaged")
	}

	// A trade that would pass every other gate is still rejected.
	err := m.CheckLimits(ctx, fixedpoint.FromUnits(1), 1, fixedpoint.FromUnits(1), fixedpoint.Zero())
	if !apperror.IsCode(err, apperror.CodeEmergencyStopActivated) {
		t.Errorf("CheckLimits error = %v, want EMERGENCY_STOP_ACTIVATED", err)
	}

	if err := m.SetEmergencyStop(ctx, false); err != nil {
		t.Fatalf("SetEmergencyStop: %v", err)
	}
	if err := m.CheckLimits(ctx, fixedpoint.FromUnits(1), 1, fixedpoint.FromUnits(1), fixedpoint.Zero()); err != nil {
		t.Errorf("CheckLimits after release: %v", err)
	}
}

func TestParametersPersistAcrossRestart(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)

	updated := m.Parameters()
	updated.MaxPositionSize = fixedpoint.FromUnits(250)
	updated.MaxSlippageBps = 75
	if err := m.SetParameters(ctx, updated); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}

	// Fresh manager over the same store restores the persisted limits, not
	// the initial ones.
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	m2, err := NewManager(store, domain.DefaultParameters(), log)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := m2.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := m2.Parameters()
	if got.MaxPositionSize.Cmp(fixedpoint.FromUnits(250)) != 0 {
		t.Errorf("restored max position = %s, want 250", got.MaxPositionSize)
	}
	if got.MaxSlippageBps != 75 {
		t.Errorf("restored max slippage = %d, want 75", got.MaxSlippageBps)
	}
}

func TestSetParametersRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	bad := m.Parameters()
	bad.MaxPositionSize = fixedpoint.Zero()

	err := m.SetParameters(ctx, bad)
	if !apperror.IsCode(err, apperror.CodeInvalidParameters) {
		t.Errorf("SetParameters error = %v, want INVALID_PARAMETERS", err)
	}

	// Live limits untouched.
	if m.Parameters().MaxPositionSize.Cmp(fixedpoint.FromUnits(100)) != 0 {
		t.Error("invalid update mutated live parameters")
	}
}

func TestDynamicFeeBps(t *testing.T) {
	m, _ := newManager(t)

	tests := []struct {
		name   string
		amount string
		profit string
		want   int64
	}{
		// profit ratio below 10% adds nothing.
		{"thin_margin", "100", "0.5", 9},
		// 20% ratio (2000 bps) adds 2.
		{"twenty_percent_margin", "100", "20", 11},
		// 60%+ ratio caps the surcharge at 6.
		{"fat_margin", "100", "90", 15},
		{"zero_profit", "100", "0", 9},
		{"zero_amount", "0", "5", 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.DynamicFeeBps(fixedpoint.MustParse(tt.amount), fixedpoint.MustParse(tt.profit))
			if got != tt.want {
				t.Errorf("DynamicFeeBps(%s, %s) = %d, want %d",
					tt.amount, tt.profit, got, tt.want)
			}
		})
	}
}
