package domain

import (
	"testing"

	"github.com/mverab/flasharb/internal/fixedpoint"
)

func lvl(price, amount string) Level {
	return Level{
		Price:  fixedpoint.MustParse(price),
		Amount: fixedpoint.MustParse(amount),
	}
}

func TestOrderBookValidate(t *testing.T) {
	tests := []struct {
		name    string
		book    OrderBookSnapshot
		wantErr bool
	}{
		{
			name: "empty_book_is_valid",
			book: OrderBookSnapshot{Venue: VenueSoroswap, Asset: AssetXLM},
		},
		{
			name: "sorted_book",
			book: OrderBookSnapshot{
				Bids: []Level{lvl("1.00", "10"), lvl("0.99", "5")},
				Asks: []Level{lvl("1.01", "10"), lvl("1.02", "5")},
			},
		},
		{
			name: "bids_out_of_order",
			book: OrderBookSnapshot{
				Bids: []Level{lvl("0.99", "10"), lvl("1.00", "5")},
			},
			wantErr: true,
		},
		{
			name: "asks_out_of_order",
			book: OrderBookSnapshot{
				Asks: []Level{lvl("1.02", "10"), lvl("1.01", "5")},
			},
			wantErr: true,
		},
		{
			name: "zero_amount_level",
			book: OrderBookSnapshot{
				Asks: []Level{{Price: fixedpoint.FromUnits(1), Amount: fixedpoint.Zero()}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.book.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOrderBookHelpers(t *testing.T) {
	book := OrderBookSnapshot{
		Bids: []Level{lvl("1.00", "10"), lvl("0.99", "5")},
		Asks: []Level{lvl("1.01", "3")},
	}

	best, ok := book.BestBid()
	if !ok || best.Price.Cmp(fixedpoint.MustParse("1.00")) != 0 {
		t.Errorf("BestBid = %v ok=%v", best, ok)
	}

	best, ok = book.BestAsk()
	if !ok || best.Price.Cmp(fixedpoint.MustParse("1.01")) != 0 {
		t.Errorf("BestAsk = %v ok=%v", best, ok)
	}

	if got := book.BidDepth(); got.Cmp(fixedpoint.FromUnits(15)) != 0 {
		t.Errorf("BidDepth = %s, want 15", got)
	}
	if got := book.AskDepth(); got.Cmp(fixedpoint.FromUnits(3)) != 0 {
		t.Errorf("AskDepth = %s, want 3", got)
	}

	var empty OrderBookSnapshot
	if !empty.Empty() {
		t.Error("zero snapshot should be empty")
	}
	if _, ok := empty.BestBid(); ok {
		t.Error("empty book has no best bid")
	}
}
