// Package fixedpoint implements fixed-point arithmetic with 8 fractional
// decimals over math/big integers. All prices, amounts and fees in the
// engine are carried as fixedpoint.Value in raw units; decimal.Decimal is
// used only at the boundaries (config parsing, display).
package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Decimals is the number of fractional digits carried by every Value.
const Decimals = 8

// Scale is 10^Decimals, the raw units in one whole unit.
var Scale = big.NewInt(100_000_000)

// Basis-point scale: 10000 bps = 100%.
var bpsScale = big.NewInt(10_000)

// Common errors.
var (
	ErrDivisionByZero  = errors.New("fixedpoint: division by zero")
	ErrTooManyDecimals = errors.New("fixedpoint: more than 8 decimal places")
)

// Value is an immutable fixed-point number. The zero value is 0.
type Value struct {
	raw *big.Int
}

// Zero returns the zero value.
func Zero() Value {
	return Value{}
}

// FromRaw creates a Value from raw units (defensive copy).
func FromRaw(raw *big.Int) Value {
	if raw == nil {
		return Value{}
	}
	return Value{raw: new(big.Int).Set(raw)}
}

// FromInt64 creates a Value from raw units expressed as int64.
func FromInt64(raw int64) Value {
	return Value{raw: big.NewInt(raw)}
}

// FromUnits creates a Value representing n whole units.
func FromUnits(n int64) Value {
	return Value{raw: new(big.Int).Mul(big.NewInt(n), Scale)}
}

// Parse creates a Value from a decimal string like "1.05".
func Parse(s string) (Value, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Value{}, fmt.Errorf("fixedpoint: invalid decimal %q: %w", s, err)
	}
	return FromDecimal(d)
}

// MustParse is Parse for compile-time constants; panics on bad input.
func MustParse(s string) Value {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// FromDecimal converts a decimal.Decimal, rejecting excess precision.
func FromDecimal(d decimal.Decimal) (Value, error) {
	scaled := d.Shift(Decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return Value{}, ErrTooManyDecimals
	}
	return Value{raw: scaled.BigInt()}, nil
}

// Raw returns a copy of the raw units.
func (v Value) Raw() *big.Int {
	if v.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v.raw)
}

func (v Value) rawOrZero() *big.Int {
	if v.raw == nil {
		return new(big.Int)
	}
	return v.raw
}

// Sign returns -1, 0 or 1.
func (v Value) Sign() int {
	if v.raw == nil {
		return 0
	}
	return v.raw.Sign()
}

// IsZero reports whether v == 0.
func (v Value) IsZero() bool { return v.Sign() == 0 }

// IsPositive reports whether v > 0.
func (v Value) IsPositive() bool { return v.Sign() > 0 }

// IsNegative reports whether v < 0.
func (v Value) IsNegative() bool { return v.Sign() < 0 }

// Add returns v + o.
func (v Value) Add(o Value) Value {
	return Value{raw: new(big.Int).Add(v.rawOrZero(), o.rawOrZero())}
}

// Sub returns v - o. Results may be negative.
func (v Value) Sub(o Value) Value {
	return Value{raw: new(big.Int).Sub(v.rawOrZero(), o.rawOrZero())}
}

// Neg returns -v.
func (v Value) Neg() Value {
	return Value{raw: new(big.Int).Neg(v.rawOrZero())}
}

// Mul returns v * o with the result rescaled: (v.raw * o.raw) / Scale,
// truncated toward zero.
func (v Value) Mul(o Value) Value {
	prod := new(big.Int).Mul(v.rawOrZero(), o.rawOrZero())
	return Value{raw: prod.Quo(prod, Scale)}
}

// Div returns v / o rescaled: (v.raw * Scale) / o.raw, truncated toward zero.
func (v Value) Div(o Value) (Value, error) {
	if o.Sign() == 0 {
		return Value{}, ErrDivisionByZero
	}
	num := new(big.Int).Mul(v.rawOrZero(), Scale)
	return Value{raw: num.Quo(num, o.rawOrZero())}, nil
}

// MulInt returns v * n.
func (v Value) MulInt(n int64) Value {
	return Value{raw: new(big.Int).Mul(v.rawOrZero(), big.NewInt(n))}
}

// DivInt returns v / n, truncated toward zero.
func (v Value) DivInt(n int64) (Value, error) {
	if n == 0 {
		return Value{}, ErrDivisionByZero
	}
	return Value{raw: new(big.Int).Quo(v.rawOrZero(), big.NewInt(n))}, nil
}

// MulBps returns v * bps / 10000, the usual fee application.
func (v Value) MulBps(bps int64) Value {
	prod := new(big.Int).Mul(v.rawOrZero(), big.NewInt(bps))
	return Value{raw: prod.Quo(prod, bpsScale)}
}

// Ratio returns (v / o) expressed in basis points, truncated toward zero.
func (v Value) Ratio(o Value) (int64, error) {
	if o.Sign() == 0 {
		return 0, ErrDivisionByZero
	}
	num := new(big.Int).Mul(v.rawOrZero(), bpsScale)
	num.Quo(num, o.rawOrZero())
	return num.Int64(), nil
}

// Cmp compares v and o: -1 if v < o, 0 if equal, 1 if v > o.
func (v Value) Cmp(o Value) int {
	return v.rawOrZero().Cmp(o.rawOrZero())
}

// Min returns the smaller of v and o.
func (v Value) Min(o Value) Value {
	if v.Cmp(o) <= 0 {
		return v
	}
	return o
}

// Max returns the larger of v and o.
func (v Value) Max(o Value) Value {
	if v.Cmp(o) >= 0 {
		return v
	}
	return o
}

// Abs returns |v|.
func (v Value) Abs() Value {
	return Value{raw: new(big.Int).Abs(v.rawOrZero())}
}

// FloorZero returns v, or zero when v is negative.
func (v Value) FloorZero() Value {
	if v.IsNegative() {
		return Zero()
	}
	return v
}

// Decimal converts to decimal.Decimal. Boundary use only.
func (v Value) Decimal() decimal.Decimal {
	if v.raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v.raw, -Decimals)
}

// String renders the value as a plain decimal string.
func (v Value) String() string {
	return v.Decimal().String()
}

// MarshalJSON encodes the value as a quoted decimal string, preserving full
// precision across persistence.
func (v Value) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted decimal string.
func (v *Value) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
