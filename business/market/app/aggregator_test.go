package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/mverab/flasharb/business/market/domain"
	"github.com/mverab/flasharb/internal/apperror"
	"github.com/mverab/flasharb/internal/fixedpoint"
	"github.com/mverab/flasharb/internal/logger"
)

type fakeOracle struct {
	price     fixedpoint.Value
	timestamp time.Time
	err       error
	calls     int
}

func (f *fakeOracle) Price(_ context.Context, asset domain.Asset) (domain.PriceQuote, error) {
	f.calls++
	if f.err != nil {
		return domain.PriceQuote{}, f.err
	}
	return domain.PriceQuote{Asset: asset, Price: f.price, Timestamp: f.timestamp}, nil
}

func (f *fakeOracle) TWAP(context.Context, domain.Asset, int) (fixedpoint.Value, error) {
	return f.price, f.err
}

type fakeSource struct {
	quote domain.PriceQuote
	book  domain.OrderBookSnapshot
	err   error
	calls int
}

func (f *fakeSource) Quote(context.Context, domain.Venue, domain.Asset) (domain.PriceQuote, error) {
	f.calls++
	return f.quote, f.err
}

func (f *fakeSource) OrderBook(context.Context, domain.Venue, domain.Asset) (domain.OrderBookSnapshot, error) {
	return f.book, f.err
}

func newTestRegistry() *domain.Registry {
	reg := domain.NewRegistry()
	reg.AddAsset(domain.AssetXLM)
	reg.AddVenue(domain.VenueStellarDEX)
	reg.AddVenue(domain.VenueSoroswap)
	return reg
}

func newTestAggregator(oracle PriceOracle, source MarketSource) *Aggregator {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	return NewAggregator(oracle, source, newTestRegistry(), AggregatorConfig{
		MaxQuoteAge:     60 * time.Second,
		MaxDeviationBps: 500,
	}, log)
}

func TestValidatedPrice(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		venuePrice  string
		venueAge    time.Duration
		oraclePrice string
		wantCode    apperror.Code
		wantConf    int64
	}{
		{
			name:        "within_deviation",
			venuePrice:  "1.00",
			oraclePrice: "1.0025", // 24 bps off
			wantConf:    76,
		},
		{
			name:        "exact_match_full_confidence",
			venuePrice:  "1.00",
			oraclePrice: "1.00",
			wantConf:    100,
		},
		{
			name:        "manipulation_detected",
			venuePrice:  "2.00",
			oraclePrice: "1.00",
			wantCode:    apperror.CodeManipulationDetected,
		},
		{
			name:        "stale_quote_rejected",
			venuePrice:  "1.00",
			venueAge:    2 * time.Minute,
			oraclePrice: "1.00",
			wantCode:    apperror.CodeStaleData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := &fakeOracle{price: fixedpoint.MustParse(tt.oraclePrice), timestamp: now}
			source := &fakeSource{quote: domain.PriceQuote{
				Asset:     domain.AssetXLM,
				Venue:     domain.VenueStellarDEX,
				Price:     fixedpoint.MustParse(tt.venuePrice),
				Timestamp: now.Add(-tt.venueAge),
			}}

			agg := newTestAggregator(oracle, source)
			agg.now = func() time.Time { return now }

			quote, err := agg.ValidatedPrice(context.Background(), domain.VenueStellarDEX, domain.AssetXLM)
			if tt.wantCode != "" {
				if !apperror.IsCode(err, tt.wantCode) {
					t.Fatalf("error = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidatedPrice: %v", err)
			}
			if quote.Confidence != tt.wantConf {
				t.Errorf("confidence = %d, want %d", quote.Confidence, tt.wantConf)
			}
		})
	}
}

func TestAggregatorZeroConfigAppliesDefaults(t *testing.T) {
	now := time.Now()
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	source := &fakeSource{quote: domain.PriceQuote{
		Asset:     domain.AssetXLM,
		Venue:     domain.VenueStellarDEX,
		Price:     fixedpoint.MustParse("1.00"),
		Timestamp: now,
	}}

	// 24 bps off the oracle validates under the default deviation window.
	oracle := &fakeOracle{price: fixedpoint.MustParse("1.0025"), timestamp: now}
	agg := NewAggregator(oracle, source, newTestRegistry(), AggregatorConfig{}, log)
	agg.now = func() time.Time { return now }

	quote, err := agg.ValidatedPrice(context.Background(), domain.VenueStellarDEX, domain.AssetXLM)
	if err != nil {
		t.Fatalf("ValidatedPrice: %v", err)
	}
	if quote.Confidence != 76 {
		t.Errorf("confidence = %d, want 76", quote.Confidence)
	}

	// 566 bps off is still past the default window.
	oracle = &fakeOracle{price: fixedpoint.MustParse("1.06"), timestamp: now}
	agg = NewAggregator(oracle, source, newTestRegistry(), AggregatorConfig{}, log)
	agg.now = func() time.Time { return now }

	_, err = agg.ValidatedPrice(context.Background(), domain.VenueStellarDEX, domain.AssetXLM)
	if !apperror.IsCode(err, apperror.CodeManipulationDetected) {
		t.Errorf("error = %v, want MANIPULATION_DETECTED", err)
	}
}

func TestValidatedPriceUnsupported(t *testing.T) {
	oracle := &fakeOracle{price: fixedpoint.FromUnits(1), timestamp: time.Now()}
	source := &fakeSource{}
	agg := newTestAggregator(oracle, source)

	_, err := agg.ValidatedPrice(context.Background(), domain.VenueStellarDEX, domain.AssetBTC)
	if !apperror.IsCode(err, apperror.CodeUnsupportedAsset) {
		t.Errorf("unsupported asset: got %v", err)
	}
	if source.calls != 0 {
		t.Errorf("source called %d times for unsupported asset, want 0", source.calls)
	}

	_, err = agg.ValidatedPrice(context.Background(), domain.VenueUniswap, domain.AssetXLM)
	if !apperror.IsCode(err, apperror.CodeUnsupportedVenue) {
		t.Errorf("unsupported venue: got %v", err)
	}
}

func TestValidatedPriceProviderFailure(t *testing.T) {
	now := time.Now()
	oracle := &fakeOracle{err: errors.New("oracle down")}
	source := &fakeSource{quote: domain.PriceQuote{
		Asset:     domain.AssetXLM,
		Venue:     domain.VenueStellarDEX,
		Price:     fixedpoint.FromUnits(1),
		Timestamp: now,
	}}

	agg := newTestAggregator(oracle, source)
	agg.now = func() time.Time { return now }

	_, err := agg.ValidatedPrice(context.Background(), domain.VenueStellarDEX, domain.AssetXLM)
	if !apperror.IsCode(err, apperror.CodeProviderFailure) {
		t.Errorf("oracle failure: got %v, want PROVIDER_FAILURE", err)
	}
	// No retries: exactly one oracle attempt.
	if oracle.calls != 1 {
		t.Errorf("oracle called %d times, want 1", oracle.calls)
	}
}

func TestOrderBookEmptyIsNotAnError(t *testing.T) {
	oracle := &fakeOracle{price: fixedpoint.FromUnits(1), timestamp: time.Now()}
	source := &fakeSource{book: domain.OrderBookSnapshot{
		Venue: domain.VenueSoroswap,
		Asset: domain.AssetXLM,
	}}

	agg := newTestAggregator(oracle, source)

	book, err := agg.OrderBook(context.Background(), domain.VenueSoroswap, domain.AssetXLM)
	if err != nil {
		t.Fatalf("OrderBook: %v", err)
	}
	if !book.Empty() {
		t.Error("expected empty snapshot")
	}
}
