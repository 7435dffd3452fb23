// Package money implements fixed-point monetary amounts stored as integer
// minor units (kobo, cents) and the cast used to persist them.
package money

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount of minor currency units. The integer is canonical; the
// decimal form is derived from it and always exact.
type Money struct {
	minor    int64
	currency Currency
}

// New builds a Money from minor units. Negative values represent debits.
func New(minor int64, cur Currency) Money {
	return Money{minor: minor, currency: cur}
}

// Zero returns a zero amount in cur.
func Zero(cur Currency) Money {
	return Money{currency: cur}
}

// maxMinorDigits is the number of decimal digits in math.MaxInt64.
const maxMinorDigits = 19

// maxInputFraction bounds the fractional digits accepted before rejecting the
// amount outright, trailing zeros included.
const maxInputFraction = 18

// FromDecimal converts a major-unit decimal into Money. It fails when d carries
// more fractional digits than the currency allows or does not fit in int64.
// Exponents are checked before any rescaling so inputs such as 1e5000000 are
// rejected in constant time.
func FromDecimal(d decimal.Decimal, cur Currency) (Money, error) {
	if cur.IsZero() {
		return Money{}, ErrInvalidCurrency
	}
	if d.IsZero() {
		return Zero(cur), nil
	}

	exp := int64(d.Exponent()) + int64(cur.scale)
	if exp+int64(d.NumDigits()) > maxMinorDigits {
		return Money{}, fmt.Errorf("%w: %w", ErrInvalidAmount, ErrOverflow)
	}
	if exp < -maxInputFraction {
		return Money{}, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, cur.scale)
	}

	shifted := d.Shift(cur.scale)
	if !shifted.Equal(shifted.Truncate(0)) {
		return Money{}, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, cur.scale)
	}
	bi := shifted.BigInt()
	if !bi.IsInt64() {
		return Money{}, fmt.Errorf("%w: %w", ErrInvalidAmount, ErrOverflow)
	}
	return New(bi.Int64(), cur), nil
}

// Parse reads a major-unit decimal string such as "1500.25".
func Parse(s string, cur Currency) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, clip(s))
	}
	m, err := FromDecimal(d, cur)
	if err != nil {
		return Money{}, fmt.Errorf("%q: %w", clip(s), err)
	}
	return m, nil
}

// clip shortens user input before it is echoed in an error.
func clip(s string) string {
	const max = 32
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func (m Money) Minor() int64 {
	return m.minor
}

func (m Money) Currency() Currency {
	return m.currency
}

// Decimal returns the exact major-unit value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.minor, -m.currency.scale)
}

// Float64 is for display only. It is lossy and must never be converted back.
func (m Money) Float64() float64 {
	return m.Decimal().InexactFloat64()
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.currency.Code(), m.Decimal().StringFixed(m.currency.scale))
}

func (m Money) IsZero() bool {
	return m.minor == 0
}

func (m Money) IsNegative() bool {
	return m.minor < 0
}

func (m Money) IsPositive() bool {
	return m.minor > 0
}

func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.minor == other.minor
}

// Compare returns -1, 0 or 1. Both amounts must share a currency.
func (m Money) Compare(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, mismatch(m, other)
	}
	switch {
	case m.minor < other.minor:
		return -1, nil
	case m.minor > other.minor:
		return 1, nil
	default:
		return 0, nil
	}
}

func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, mismatch(m, other)
	}
	sum := m.minor + other.minor
	if (other.minor > 0 && sum < m.minor) || (other.minor < 0 && sum > m.minor) {
		return Money{}, ErrOverflow
	}
	return New(sum, m.currency), nil
}

func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, mismatch(m, other)
	}
	diff := m.minor - other.minor
	if (other.minor < 0 && diff < m.minor) || (other.minor > 0 && diff > m.minor) {
		return Money{}, ErrOverflow
	}
	return New(diff, m.currency), nil
}

func (m Money) Neg() Money {
	return New(-m.minor, m.currency)
}

// MulRatio multiplies by num/den and rounds half away from zero to the minor unit.
func (m Money) MulRatio(num, den int64) (Money, error) {
	if den == 0 {
		return Money{}, ErrInvalidRatio
	}
	r := decimal.NewFromInt(m.minor).Mul(decimal.NewFromInt(num)).Div(decimal.NewFromInt(den)).Round(0)
	bi := r.BigInt()
	if !bi.IsInt64() {
		return Money{}, ErrOverflow
	}
	return New(bi.Int64(), m.currency), nil
}

// Sum adds amounts that share cur.
func Sum(cur Currency, amounts ...Money) (Money, error) {
	total := Zero(cur)
	for _, a := range amounts {
		var err error
		if total, err = total.Add(a); err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

// MarshalJSON writes the major-unit value as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Float64())
}

func mismatch(a, b Money) error {
	return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, a.currency.Code(), b.currency.Code())
}

func bigFromUint(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
