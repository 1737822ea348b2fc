package pricing

import (
	"github.com/shopspring/decimal"
)

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice decimal.Decimal
}

// Rules carries the discount and tax parameters applied to every bill.
type Rules struct {
	TaxRate           decimal.Decimal `validate:"gte=0,lte=1"`
	DiscountThreshold decimal.Decimal `validate:"gte=0"`
	DiscountRate      decimal.Decimal `validate:"gte=0,lte=1"`
}

// DefaultRules returns 8% tax and a 10% discount once the subtotal reaches 20.00.
func DefaultRules() Rules {
	return Rules{
		TaxRate:           decimal.RequireFromString("0.08"),
		DiscountThreshold: decimal.RequireFromString("20.00"),
		DiscountRate:      decimal.RequireFromString("0.10"),
	}
}

// Validate checks that rates are fractions and the threshold is non-negative.
func (r Rules) Validate() error {
	return ValidateStruct(r)
}

// Summary aggregates computed pricing components. Values are exact; round
// only when displaying them.
type Summary struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// LineTotal returns unitPrice × qty.
func LineTotal(unitPrice decimal.Decimal, qty int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(qty)))
}

// Compute calculates bill totals for the provided items.
func Compute(items []Item, rules Rules) Summary {
	subtotal := decimal.Zero
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal = subtotal.Add(LineTotal(it.UnitPrice, it.Qty))
	}
	return Apply(subtotal, rules)
}

// Apply derives discount, tax and total from an already summed subtotal.
func Apply(subtotal decimal.Decimal, rules Rules) Summary {
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}
	discount := decimal.Zero
	if subtotal.IsPositive() && subtotal.GreaterThanOrEqual(rules.DiscountThreshold) {
		discount = subtotal.Mul(rules.DiscountRate)
	}
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(rules.TaxRate)
	return Summary{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    taxable.Add(tax),
	}
}
