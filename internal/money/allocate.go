package money

import "github.com/shopspring/decimal"

// Allocate splits m into len(ratios) parts proportional to ratios. Each part
// gets floor(|m|*ratio/sum); leftover minor units go one at a time to the
// earliest parts with a non-zero ratio, so the parts always add up to m.
func (m Money) Allocate(ratios ...int64) ([]Money, error) {
	if len(ratios) == 0 {
		return nil, ErrInvalidRatio
	}
	total := decimal.Zero
	for _, r := range ratios {
		if r < 0 {
			return nil, ErrInvalidRatio
		}
		total = total.Add(decimal.NewFromInt(r))
	}
	if total.IsZero() {
		return nil, ErrInvalidRatio
	}

	abs := decimal.NewFromInt(m.minor).Abs()
	shares := make([]decimal.Decimal, len(ratios))
	allocated := decimal.Zero
	for i, r := range ratios {
		q, _ := abs.Mul(decimal.NewFromInt(r)).QuoRem(total, 0)
		shares[i] = q
		allocated = allocated.Add(q)
	}

	remainder := abs.Sub(allocated)
	for i := 0; i < len(shares) && remainder.IsPositive(); i++ {
		if ratios[i] == 0 {
			continue
		}
		shares[i] = shares[i].Add(decimal.NewFromInt(1))
		remainder = remainder.Sub(decimal.NewFromInt(1))
	}

	parts := make([]Money, len(shares))
	for i, s := range shares {
		if m.minor < 0 {
			s = s.Neg()
		}
		parts[i] = New(s.IntPart(), m.currency)
	}
	return parts, nil
}

// AllocateProportionally spreads total across weights in proportion to each
// weight's own amount. It is used to apportion a discount over line items.
func AllocateProportionally(total Money, weights []Money) ([]Money, error) {
	ratios := make([]int64, len(weights))
	for i, w := range weights {
		if w.currency != total.currency {
			return nil, mismatch(total, w)
		}
		if w.minor < 0 {
			return nil, ErrInvalidRatio
		}
		ratios[i] = w.minor
	}
	return total.Allocate(ratios...)
}
