package store

import (
	"context"
	"testing"
	"time"

	"github.com/mverab/flasharb/business/market/domain"
	"github.com/mverab/flasharb/internal/apperror"
	"github.com/mverab/flasharb/internal/fixedpoint"
	"github.com/mverab/flasharb/internal/statestore"
)

func TestQuoteRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := New(statestore.NewMemory())

	now := time.Now().Truncate(time.Second)
	in := domain.PriceQuote{
		Asset:      domain.AssetXLM,
		Venue:      domain.VenueSoroswap,
		Price:      fixedpoint.MustParse("0.12345678"),
		Timestamp:  now,
		Confidence: 95,
	}

	if err := src.SubmitQuote(ctx, in); err != nil {
		t.Fatalf("SubmitQuote: %v", err)
	}

	out, err := src.Quote(ctx, domain.VenueSoroswap, domain.AssetXLM)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if out.Price.Cmp(in.Price) != 0 {
		t.Errorf("price = %s, want %s", out.Price, in.Price)
	}
	if !out.Timestamp.Equal(now) {
		t.Errorf("timestamp = %s, want %s", out.Timestamp, now)
	}
	if out.Confidence != 95 {
		t.Errorf("confidence = %d, want 95", out.Confidence)
	}
}

func TestQuoteMissing(t *testing.T) {
	src := New(statestore.NewMemory())
	_, err := src.Quote(context.Background(), domain.VenueAquarius, domain.AssetBTC)
	if !apperror.IsCode(err, apperror.CodeMarketDataError) {
		t.Errorf("missing quote: got %v, want MARKET_DATA_ERROR", err)
	}
}

func TestSubmitQuoteValidation(t *testing.T) {
	src := New(statestore.NewMemory())

	err := src.SubmitQuote(context.Background(), domain.PriceQuote{
		Asset: domain.AssetXLM,
		Venue: domain.VenueSoroswap,
		Price: fixedpoint.Zero(),
	})
	if !apperror.IsCode(err, apperror.CodeInvalidParameters) {
		t.Errorf("zero price: got %v, want INVALID_PARAMETERS", err)
	}
}

func TestOrderBookRoundTripAndMissing(t *testing.T) {
	ctx := context.Background()
	src := New(statestore.NewMemory())

	// A missing book is an empty snapshot, not an error.
	book, err := src.OrderBook(ctx, domain.VenueSoroswap, domain.AssetXLM)
	if err != nil {
		t.Fatalf("OrderBook(missing): %v", err)
	}
	if !book.Empty() {
		t.Error("missing book should be empty")
	}

	in := domain.OrderBookSnapshot{
		Venue: domain.VenueSoroswap,
		Asset: domain.AssetXLM,
		Bids: []domain.Level{
			{Price: fixedpoint.MustParse("0.99"), Amount: fixedpoint.FromUnits(100)},
		},
		Asks: []domain.Level{
			{Price: fixedpoint.MustParse("1.01"), Amount: fixedpoint.FromUnits(50)},
			{Price: fixedpoint.MustParse("1.02"), Amount: fixedpoint.FromUnits(80)},
		},
		Timestamp: time.Now().Truncate(time.Second),
	}

	if err := src.SubmitOrderBook(ctx, in); err != nil {
		t.Fatalf("SubmitOrderBook: %v", err)
	}

	out, err := src.OrderBook(ctx, domain.VenueSoroswap, domain.AssetXLM)
	if err != nil {
		t.Fatalf("OrderBook: %v", err)
	}
	if len(out.Bids) != 1 || len(out.Asks) != 2 {
		t.Fatalf("levels = %d/%d, want 1/2", len(out.Bids), len(out.Asks))
	}
	if out.Asks[1].Amount.Cmp(fixedpoint.FromUnits(80)) != 0 {
		t.Errorf("ask amount = %s, want 80", out.Asks[1].Amount)
	}

	// Unsorted books are rejected at submission.
	bad := in
	bad.Asks = []domain.Level{
		{Price: fixedpoint.MustParse("1.02"), Amount: fixedpoint.FromUnits(1)},
		{Price: fixedpoint.MustParse("1.01"), Amount: fixedpoint.FromUnits(1)},
	}
	if err := src.SubmitOrderBook(ctx, bad); err == nil {
		t.Error("unsorted book should be rejected")
	}
}
