package domain

import (
	"testing"
	"time"

	"github.com/mverab/flasharb/internal/fixedpoint"
)

func TestValidateDeviation(t *testing.T) {
	tests := []struct {
		name   string
		price  int64 // raw units
		ref    int64
		maxBps int64
		want   bool
	}{
		{name: "one_percent_within_500bps", price: 100_000_000, ref: 101_000_000, maxBps: 500, want: true},
		{name: "double_price_rejected", price: 100_000_000, ref: 50_000_000, maxBps: 500, want: false},
		{name: "exact_match", price: 100_000_000, ref: 100_000_000, maxBps: 0, want: true},
		{name: "at_the_bound", price: 105_000_000, ref: 100_000_000, maxBps: 500, want: true},
		{name: "just_past_the_bound", price: 105_010_000, ref: 100_000_000, maxBps: 500, want: false},
		{name: "zero_reference_rejected", price: 100_000_000, ref: 0, maxBps: 10_000, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateDeviation(fixedpoint.FromInt64(tt.price), fixedpoint.FromInt64(tt.ref), tt.maxBps)
			if got != tt.want {
				t.Errorf("ValidateDeviation(%d, %d, %d) = %v, want %v",
					tt.price, tt.ref, tt.maxBps, got, tt.want)
			}
		})
	}
}

func TestQuoteStale(t *testing.T) {
	now := time.Now()
	q := PriceQuote{
		Asset:     AssetXLM,
		Venue:     VenueStellarDEX,
		Price:     fixedpoint.FromUnits(1),
		Timestamp: now.Add(-61 * time.Second),
	}

	if !q.Stale(now, 60*time.Second) {
		t.Error("61s old quote should be stale with a 60s window")
	}

	q.Timestamp = now.Add(-59 * time.Second)
	if q.Stale(now, 60*time.Second) {
		t.Error("59s old quote should be fresh with a 60s window")
	}

	// Non-positive window falls back to the default 60s.
	q.Timestamp = now.Add(-2 * time.Minute)
	if !q.Stale(now, 0) {
		t.Error("2m old quote should be stale with the default window")
	}
}

func TestConfidenceFromDeviation(t *testing.T) {
	tests := []struct {
		deviationBps int64
		want         int64
	}{
		{deviationBps: 0, want: 100},
		{deviationBps: 25, want: 75},
		{deviationBps: 100, want: 0},
		{deviationBps: 5_000, want: 0},
	}

	for _, tt := range tests {
		if got := ConfidenceFromDeviation(tt.deviationBps); got != tt.want {
			t.Errorf("ConfidenceFromDeviation(%d) = %d, want %d", tt.deviationBps, got, tt.want)
		}
	}
}

func TestParseAssetAndVenue(t *testing.T) {
	a, err := ParseAsset("xlm")
	if err != nil || a != AssetXLM {
		t.Errorf("ParseAsset(xlm) = %v, %v", a, err)
	}
	if _, err := ParseAsset("DOGE"); err == nil {
		t.Error("ParseAsset(DOGE) should fail")
	}

	v, err := ParseVenue("Soroswap")
	if err != nil || v != VenueSoroswap {
		t.Errorf("ParseVenue(Soroswap) = %v, %v", v, err)
	}
	if _, err := ParseVenue("binance"); err == nil {
		t.Error("ParseVenue(binance) should fail")
	}

	if VenueUniswap.Chain() != ChainEthereum {
		t.Error("uniswap should settle on ethereum")
	}
	if VenueStellarDEX.Chain() != ChainStellar {
		t.Error("stellar_dex should settle on stellar")
	}
}
