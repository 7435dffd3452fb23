package money

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Cast converts between a persisted minor-unit integer and Money for one
// field with a fixed currency.
type Cast struct {
	Currency Currency
}

func NewCast(cur Currency) Cast {
	return Cast{Currency: cur}
}

// Load never fails: any int64, including negatives, is a valid amount.
func (c Cast) Load(stored int64) Money {
	return New(stored, c.Currency)
}

// Store accepts either Money or a raw major-unit number and returns the
// minor-unit integer to persist. Raw numbers are normalised through
// FromDecimal in the field's currency.
func (c Cast) Store(value any) (int64, error) {
	var (
		m   Money
		err error
	)

	switch v := value.(type) {
	case Money:
		if v.currency != c.Currency {
			return 0, mismatch(New(0, c.Currency), v)
		}
		return v.minor, nil
	case *Money:
		if v == nil {
			return 0, fmt.Errorf("%w: nil money", ErrInvalidAmount)
		}
		return c.Store(*v)
	case int:
		m, err = FromDecimal(decimal.NewFromInt(int64(v)), c.Currency)
	case int8:
		m, err = FromDecimal(decimal.NewFromInt(int64(v)), c.Currency)
	case int16:
		m, err = FromDecimal(decimal.NewFromInt(int64(v)), c.Currency)
	case int32:
		m, err = FromDecimal(decimal.NewFromInt32(v), c.Currency)
	case int64:
		m, err = FromDecimal(decimal.NewFromInt(v), c.Currency)
	case uint:
		m, err = FromDecimal(bigFromUint(uint64(v)), c.Currency)
	case uint8:
		m, err = FromDecimal(bigFromUint(uint64(v)), c.Currency)
	case uint16:
		m, err = FromDecimal(bigFromUint(uint64(v)), c.Currency)
	case uint32:
		m, err = FromDecimal(bigFromUint(uint64(v)), c.Currency)
	case uint64:
		m, err = FromDecimal(bigFromUint(v), c.Currency)
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, v)
		}
		m, err = FromDecimal(decimal.NewFromFloat32(v), c.Currency)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, v)
		}
		m, err = FromDecimal(decimal.NewFromFloat(v), c.Currency)
	case decimal.Decimal:
		m, err = FromDecimal(v, c.Currency)
	case *decimal.Decimal:
		if v == nil {
			return 0, fmt.Errorf("%w: nil decimal", ErrInvalidAmount)
		}
		m, err = FromDecimal(*v, c.Currency)
	case string:
		m, err = Parse(v, c.Currency)
	case json.Number:
		m, err = Parse(string(v), c.Currency)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, value)
	}
	if err != nil {
		return 0, err
	}
	return m.minor, nil
}

// Serialize returns the major-unit value for API responses.
func (c Cast) Serialize(m Money) float64 {
	return m.Float64()
}
