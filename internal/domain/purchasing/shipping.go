package purchasing

import "github.com/shopspring/decimal"

// shippingPrecision is the currency precision used for allocated fees
const shippingPrecision = 2

// AllocationLine is the input of one delivered line to shipping allocation
type AllocationLine struct {
	Subtotal decimal.Decimal
	Units    decimal.Decimal
}

// AllocateShipping splits fee across lines proportionally to their subtotal.
// Lines with no units receive nothing. When every subtotal is zero the fee is
// split by units instead. Shares are rounded to cents and the rounding
// remainder lands on the last eligible line, so the result always sums to fee
// unless no line is eligible, in which case every share is zero.
func AllocateShipping(fee decimal.Decimal, lines []AllocationLine) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(lines))
	for i := range shares {
		shares[i] = decimal.Zero
	}
	if !fee.IsPositive() {
		return shares
	}

	weights := make([]decimal.Decimal, len(lines))
	total := decimal.Zero
	for i, l := range lines {
		if l.Units.IsPositive() && l.Subtotal.IsPositive() {
			weights[i] = l.Subtotal
			total = total.Add(l.Subtotal)
		} else {
			weights[i] = decimal.Zero
		}
	}
	if total.IsZero() {
		for i, l := range lines {
			if l.Units.IsPositive() {
				weights[i] = l.Units
				total = total.Add(l.Units)
			}
		}
	}
	if total.IsZero() {
		return shares
	}

	last := -1
	for i := range weights {
		if weights[i].IsPositive() {
			last = i
		}
	}
	allocated := decimal.Zero
	for i, w := range weights {
		if !w.IsPositive() {
			continue
		}
		if i == last {
			shares[i] = fee.Sub(allocated)
			break
		}
		shares[i] = fee.Mul(w).Div(total).Round(shippingPrecision)
		allocated = allocated.Add(shares[i])
	}
	return shares
}

// EffectiveUnitPrice adds the per-unit share of allocated shipping to the
// purchase price.
func EffectiveUnitPrice(unitPrice, allocatedShipping, units decimal.Decimal) decimal.Decimal {
	if !units.IsPositive() {
		return unitPrice
	}
	return unitPrice.Add(allocatedShipping.Div(units)).Round(4)
}
