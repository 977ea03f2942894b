package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of Money units in one currency unit (5 implied decimals).
const MoneyScale = 100000

// moneyDecimals is the exponent matching MoneyScale.
const moneyDecimals = 5

// ErrOverflow is returned when a monetary computation does not fit in a Money.
var ErrOverflow = errors.New("monetary arithmetic overflow")

// Money is a fixed-point currency amount scaled by MoneyScale.
// 12.5 is stored as 1250000.
type Money int64

// NewMoney builds a Money from whole currency units.
func NewMoney(units int64) (Money, error) {
	return Money(units).MulQty(MoneyScale)
}

// ParseMoney parses a decimal string exactly. Values with more than five
// fractional digits are rejected rather than rounded.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid money value %q: %w", s, err)
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal converts an exact decimal into Money.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	scaled := d.Shift(moneyDecimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("money value %s has more than %d decimal places", d.String(), moneyDecimals)
	}
	bi := scaled.BigInt()
	if !bi.IsInt64() {
		return 0, fmt.Errorf("%w: %s", ErrOverflow, d.String())
	}
	return Money(bi.Int64()), nil
}

// Decimal returns the exact decimal value of m.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -moneyDecimals)
}

// String renders the exact value, e.g. "12.5".
func (m Money) String() string {
	return m.Decimal().String()
}

// Display renders m with two fractional digits for presentation.
func (m Money) Display() string {
	return m.Decimal().StringFixed(2)
}

// Add returns m+o or ErrOverflow.
func (m Money) Add(o Money) (Money, error) {
	if (o > 0 && m > math.MaxInt64-o) || (o < 0 && m < math.MinInt64-o) {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, m, o)
	}
	return m + o, nil
}

// Sub returns m-o or ErrOverflow.
func (m Money) Sub(o Money) (Money, error) {
	if (o < 0 && m > math.MaxInt64+o) || (o > 0 && m < math.MinInt64+o) {
		return 0, fmt.Errorf("%w: %d - %d", ErrOverflow, m, o)
	}
	return m - o, nil
}

// MulQty returns m*qty or ErrOverflow.
func (m Money) MulQty(qty int64) (Money, error) {
	if m == 0 || qty == 0 {
		return 0, nil
	}
	if (m == -1 && qty == math.MinInt64) || (qty == -1 && m == math.MinInt64) {
		return 0, fmt.Errorf("%w: %d * %d", ErrOverflow, m, qty)
	}
	p := int64(m) * qty
	if p/qty != int64(m) {
		return 0, fmt.Errorf("%w: %d * %d", ErrOverflow, m, qty)
	}
	return Money(p), nil
}

// DivCount divides m by n, treating n < 1 as 1. The result truncates toward zero.
func (m Money) DivCount(n int) Money {
	if n < 1 {
		n = 1
	}
	return m / Money(n)
}
