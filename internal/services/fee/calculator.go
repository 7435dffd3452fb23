package fee

import (
	"fmt"

	"transactx/internal/models"
	"transactx/internal/money"
)

// Band charges Fee on amounts up to and including UpTo. A zero UpTo is
// unbounded and must come last.
type Band struct {
	UpTo money.Money
	Fee  money.Money
}

// Schedule is the fee table for outbound transfers.
type Schedule struct {
	Bands []Band
	// VAT is charged on the fee as VATNumerator/VATDenominator.
	VATNumerator   int64
	VATDenominator int64
}

// DefaultSchedule mirrors NIP transfer charges: 10/25/50 naira bands plus
// 7.5% VAT on the charge.
func DefaultSchedule() Schedule {
	ngn := func(naira int64) money.Money { return money.New(naira*100, money.DefaultCurrency) }
	return Schedule{
		Bands: []Band{
			{UpTo: ngn(5000), Fee: ngn(10)},
			{UpTo: ngn(50000), Fee: ngn(25)},
			{Fee: ngn(50)},
		},
		VATNumerator:   75,
		VATDenominator: 1000,
	}
}

type Calculator struct {
	schedule Schedule
}

func NewCalculator(schedule Schedule) *Calculator {
	return &Calculator{schedule: schedule}
}

// TransferFees returns the fee rows for sending amount. A positive discount is
// capped at the fee total and apportioned across the charges as negative
// DISCOUNT rows.
func (c *Calculator) TransferFees(amount, discount money.Money) ([]models.TransactionFee, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: transfer amount must be positive", money.ErrInvalidAmount)
	}
	if discount.IsNegative() {
		return nil, fmt.Errorf("%w: discount cannot be negative", money.ErrInvalidAmount)
	}

	charge, err := c.bandFee(amount)
	if err != nil {
		return nil, err
	}
	vat, err := charge.MulRatio(c.schedule.VATNumerator, c.schedule.VATDenominator)
	if err != nil {
		return nil, err
	}

	fees := []models.TransactionFee{
		{Kind: models.FeeKindTransfer, Amount: charge},
		{Kind: models.FeeKindVAT, Amount: vat},
	}
	if discount.IsZero() {
		return fees, nil
	}

	total, err := charge.Add(vat)
	if err != nil {
		return nil, err
	}
	cmp, err := discount.Compare(total)
	if err != nil {
		return nil, err
	}
	if cmp > 0 {
		discount = total
	}

	parts, err := money.AllocateProportionally(discount, []money.Money{charge, vat})
	if err != nil {
		return nil, err
	}
	for _, p := range parts {
		if p.IsZero() {
			continue
		}
		fees = append(fees, models.TransactionFee{Kind: models.FeeKindDiscount, Amount: p.Neg()})
	}
	return fees, nil
}

func (c *Calculator) bandFee(amount money.Money) (money.Money, error) {
	for _, b := range c.schedule.Bands {
		if b.UpTo.IsZero() {
			return b.Fee, nil
		}
		cmp, err := amount.Compare(b.UpTo)
		if err != nil {
			return money.Money{}, err
		}
		if cmp <= 0 {
			return b.Fee, nil
		}
	}
	return money.Money{}, fmt.Errorf("no fee band for %s", amount)
}
