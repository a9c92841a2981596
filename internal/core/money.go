// Package core provides the typed records and value objects shared by the
// closing engine and its adapters.
//
// This file contains the fixed-point money type. Amounts are held as integer
// cents; the only rounding point is multiplication by a percentage, which goes
// through MulPercent.
package core

import (
	"bytes"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a currency amount in cents.
type Money struct {
	Cents int64
}

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

// Cents builds a Money from an integer number of cents.
func Cents(c int64) Money {
	return Money{Cents: c}
}

// ParseMoney converts a decimal string to Money, rounding half-up on the
// third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Negative amounts are allowed (refunds, chargebacks).
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234 cents
//	ParseMoney("12,345") -> 1235 cents
//	ParseMoney("-0.5")   -> -50 cents
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d), nil
}

// MoneyFromDecimal rounds a decimal amount (in currency units) to cents.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: roundHalfUp(d.Shift(2))}
}

// roundHalfUp rounds toward +Inf on ties, the same way Math.round does.
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Add(half).Floor().IntPart()
}

// MulPercent returns round2(m * pct / 100).
func (m Money) MulPercent(pct decimal.Decimal) Money {
	if m.Cents == 0 || pct.IsZero() {
		return Money{}
	}
	return Money{Cents: roundHalfUp(decimal.NewFromInt(m.Cents).Mul(pct).Div(hundred))}
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float64 returns the amount as a float64 for spreadsheets and charts.
// Use cents for calculations.
func (m Money) Float64() float64 {
	return m.Decimal().InexactFloat64()
}

// String formats the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON writes the amount as a JSON number with two fractional digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string. Null and
// empty strings decode to zero.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if strings.TrimSpace(s) == "" {
		*m = Money{}
		return nil
	}
	v, err := ParseMoney(s)
	if err != nil {
		return errors.New("invalid money value " + string(data))
	}
	*m = v
	return nil
}

// Sum adds up a list of amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
