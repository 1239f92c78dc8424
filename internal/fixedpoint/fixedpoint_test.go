package fixedpoint

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAndString(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantRaw int64
		wantErr bool
	}{
		{name: "whole_unit", in: "1", wantRaw: 100_000_000},
		{name: "price_with_cents", in: "1.05", wantRaw: 105_000_000},
		{name: "eight_decimals", in: "0.00000001", wantRaw: 1},
		{name: "negative", in: "-2.5", wantRaw: -250_000_000},
		{name: "too_many_decimals", in: "0.000000001", wantErr: true},
		{name: "garbage", in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q): expected error, got %s", tt.in, v)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if got := v.Raw().Int64(); got != tt.wantRaw {
				t.Errorf("raw = %d, want %d", got, tt.wantRaw)
			}
		})
	}
}

func TestMulRescales(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want string
	}{
		{name: "unit_identity", a: "7", b: "1", want: "7"},
		{name: "price_times_amount", a: "1.01", b: "100", want: "101"},
		{name: "truncates_toward_zero", a: "0.00000001", b: "0.1", want: "0"},
		{name: "negative_truncates_toward_zero", a: "-0.00000001", b: "0.1", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := MustParse(tt.a)
			b := MustParse(tt.b)
			want := decimal.RequireFromString(tt.want)
			if got := a.Mul(b).Decimal(); !got.Equal(want) {
				t.Errorf("%s * %s = %s, want %s", tt.a, tt.b, got, want)
			}
		})
	}
}

func TestDiv(t *testing.T) {
	a := MustParse("101")
	b := MustParse("100")
	got, err := a.Div(b)
	if err != nil {
		t.Fatalf("Div: %v", err)
	}
	if want := decimal.RequireFromString("1.01"); !got.Decimal().Equal(want) {
		t.Errorf("101/100 = %s, want %s", got, want)
	}

	if _, err := a.Div(Zero()); err != ErrDivisionByZero {
		t.Errorf("division by zero: got %v, want ErrDivisionByZero", err)
	}
}

func TestMulBps(t *testing.T) {
	tests := []struct {
		name string
		v    string
		bps  int64
		want string
	}{
		{name: "ten_bps_fee", v: "10000", bps: 10, want: "10"},
		{name: "five_bps_fee", v: "10000", bps: 5, want: "5"},
		{name: "full_notional", v: "123.45", bps: 10_000, want: "123.45"},
		{name: "zero_bps", v: "999", bps: 0, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MustParse(tt.v).MulBps(tt.bps)
			if want := decimal.RequireFromString(tt.want); !got.Decimal().Equal(want) {
				t.Errorf("%s * %dbps = %s, want %s", tt.v, tt.bps, got, want)
			}
		})
	}
}

func TestFloorZero(t *testing.T) {
	if got := MustParse("-3").FloorZero(); !got.IsZero() {
		t.Errorf("FloorZero(-3) = %s, want 0", got)
	}
	if got := MustParse("3").FloorZero(); got.Cmp(MustParse("3")) != 0 {
		t.Errorf("FloorZero(3) = %s, want 3", got)
	}
}

func TestZeroValueIsUsable(t *testing.T) {
	var v Value
	if !v.IsZero() {
		t.Error("zero Value should be zero")
	}
	if got := v.Add(FromUnits(2)); got.Cmp(FromUnits(2)) != 0 {
		t.Errorf("0 + 2 = %s, want 2", got)
	}
	if v.Raw().Cmp(new(big.Int)) != 0 {
		t.Error("Raw of zero Value should be 0")
	}
}

func TestRatio(t *testing.T) {
	profit := MustParse("1")
	notional := MustParse("100")
	got, err := profit.Ratio(notional)
	if err != nil {
		t.Fatalf("Ratio: %v", err)
	}
	if got != 100 {
		t.Errorf("1/100 = %d bps, want 100", got)
	}
}
