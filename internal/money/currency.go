package money

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

// Currency is an ISO-4217 currency together with its minor-unit scale.
type Currency struct {
	unit  currency.Unit
	scale int32
}

var (
	NGN = MustCurrency("NGN")
	USD = MustCurrency("USD")

	DefaultCurrency = NGN
)

// ParseCurrency resolves an ISO-4217 code such as "NGN" or "usd".
func ParseCurrency(code string) (Currency, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return Currency{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return Currency{unit: unit, scale: int32(scale)}, nil
}

func MustCurrency(code string) Currency {
	c, err := ParseCurrency(code)
	if err != nil {
		panic(err)
	}
	return c
}

// Code returns the upper-case ISO code.
func (c Currency) Code() string {
	return c.unit.String()
}

// Scale is the number of minor-unit digits (2 for NGN, 0 for JPY).
func (c Currency) Scale() int32 {
	return c.scale
}

func (c Currency) IsZero() bool {
	return c == Currency{}
}

func (c Currency) String() string {
	return c.Code()
}
