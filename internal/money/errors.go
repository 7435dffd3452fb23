package money

import "errors"

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidCurrency  = errors.New("invalid currency")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrInvalidRatio     = errors.New("invalid allocation ratio")
	ErrOverflow         = errors.New("amount overflows minor units")
)
