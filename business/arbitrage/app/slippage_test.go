package app

import (
	"testing"

	"github.com/mverab/flasharb/business/arbitrage/domain"
	marketDomain "github.com/mverab/flasharb/business/market/domain"
	"github.com/mverab/flasharb/internal/fixedpoint"
)

func level(price, amount string) marketDomain.Level {
	return marketDomain.Level{
		Price:  fixedpoint.MustParse(price),
		Amount: fixedpoint.MustParse(amount),
	}
}

func TestEstimateFromBook(t *testing.T) {
	book := marketDomain.OrderBookSnapshot{
		Venue: marketDomain.VenueSoroswap,
		Asset: marketDomain.AssetXLM,
		Asks: []marketDomain.Level{
			level("1.00", "10"),
			level("1.01", "20"),
			level("1.05", "50"),
		},
		Bids: []marketDomain.Level{
			level("0.99", "10"),
			level("0.95", "20"),
		},
	}

	est := NewSlippageEstimator()

	tests := []struct {
		name     string
		side     Side
		size     string
		wantBps  int64
		wantProv domain.SlippageProvenance
	}{
		{name: "fills_at_best", side: SideBuy, size: "10", wantBps: 0, wantProv: domain.SlippageFromBook},
		{name: "second_level", side: SideBuy, size: "25", wantBps: 100, wantProv: domain.SlippageFromBook},
		{name: "third_level", side: SideBuy, size: "80", wantBps: 500, wantProv: domain.SlippageFromBook},
		{name: "insufficient_depth_fixed_penalty", side: SideBuy, size: "1000", wantBps: 500, wantProv: domain.SlippageFromBook},
		{name: "sell_walks_bids", side: SideSell, size: "30", wantBps: 404, wantProv: domain.SlippageFromBook},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := est.Estimate(book, tt.side, fixedpoint.MustParse(tt.size))
			if err != nil {
				t.Fatalf("Estimate: %v", err)
			}
			if got.Bps != tt.wantBps {
				t.Errorf("bps = %d, want %d", got.Bps, tt.wantBps)
			}
			if got.Provenance != tt.wantProv {
				t.Errorf("provenance = %s, want %s", got.Provenance, tt.wantProv)
			}
		})
	}
}

func TestEstimateCapsAtMax(t *testing.T) {
	// Second level is 20% off best: raw impact 2000 bps, capped at 1000.
	book := marketDomain.OrderBookSnapshot{
		Asks: []marketDomain.Level{
			level("1.00", "1"),
			level("1.20", "100"),
		},
	}

	got, err := NewSlippageEstimator().Estimate(book, SideBuy, fixedpoint.FromUnits(50))
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if got.Bps != 1000 {
		t.Errorf("bps = %d, want capped 1000", got.Bps)
	}
}

func TestEstimateMonotonicInSize(t *testing.T) {
	book := marketDomain.OrderBookSnapshot{
		Asks: []marketDomain.Level{
			level("1.00", "10"),
			level("1.002", "10"),
			level("1.01", "10"),
			level("1.03", "10"),
		},
	}

	est := NewSlippageEstimator()
	prev := int64(-1)
	for _, size := range []string{"5", "15", "25", "35", "100"} {
		got, err := est.Estimate(book, SideBuy, fixedpoint.MustParse(size))
		if err != nil {
			t.Fatalf("Estimate(%s): %v", size, err)
		}
		if got.Bps < prev {
			t.Errorf("slippage decreased at size %s: %d < %d", size, got.Bps, prev)
		}
		prev = got.Bps
	}
}

func TestEstimateModelFallback(t *testing.T) {
	est := NewSlippageEstimator()
	var empty marketDomain.OrderBookSnapshot

	tests := []struct {
		size    string
		wantBps int64
	}{
		{size: "1", wantBps: 5},         // base only
		{size: "100", wantBps: 8},       // base + one size step
		{size: "350", wantBps: 14},      // base + three size steps
		{size: "1000000", wantBps: 500}, // capped
	}

	for _, tt := range tests {
		got, err := est.Estimate(empty, SideBuy, fixedpoint.MustParse(tt.size))
		if err != nil {
			t.Fatalf("Estimate(%s): %v", tt.size, err)
		}
		if got.Provenance != domain.SlippageFromModel {
			t.Errorf("size %s: provenance = %s, want model", tt.size, got.Provenance)
		}
		if got.Bps != tt.wantBps {
			t.Errorf("size %s: bps = %d, want %d", tt.size, got.Bps, tt.wantBps)
		}
	}
}

func TestEstimateRejectsNonPositiveSize(t *testing.T) {
	_, err := NewSlippageEstimator().Estimate(marketDomain.OrderBookSnapshot{}, SideBuy, fixedpoint.Zero())
	if err == nil {
		t.Error("zero trade size should be rejected")
	}
}
