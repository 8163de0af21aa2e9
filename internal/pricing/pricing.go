// Package pricing derives the monetary fields of an order from its line items.
package pricing

import (
	"github.com/shopspring/decimal"
)

// Reference policy values.
var (
	DefaultShippingFlatRate = decimal.NewFromInt(20000)
	DefaultTaxRate          = decimal.RequireFromString("0.11")
)

// currencyScale is the number of decimal places money is rounded to.
const currencyScale = 2

// Policy holds the configurable parts of the calculation.
type Policy struct {
	ShippingFlatRate decimal.Decimal
	TaxRate          decimal.Decimal
}

// DefaultPolicy returns the reference shipping and tax policy.
func DefaultPolicy() Policy {
	return Policy{
		ShippingFlatRate: DefaultShippingFlatRate,
		TaxRate:          DefaultTaxRate,
	}
}

// LineItem is a unit price and a quantity.
type LineItem struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal returns UnitPrice × Quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Breakdown is the result of a calculation.
// Total always equals Subtotal + ShippingCost + Tax - Discount.
type Breakdown struct {
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Tax          decimal.Decimal
	Discount     decimal.Decimal
	Total        decimal.Decimal
}

// Compute prices a set of line items under a policy. The discount is always
// zero here; see WithDiscount.
func Compute(lines []LineItem, policy Policy) Breakdown {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal())
	}

	// Round is half away from zero, which is half-up for non-negative amounts.
	tax := subtotal.Mul(policy.TaxRate).Round(currencyScale)

	b := Breakdown{
		Subtotal:     subtotal,
		ShippingCost: policy.ShippingFlatRate,
		Tax:          tax,
		Discount:     decimal.Zero,
	}
	b.Total = b.gross()
	return b
}

// WithDiscount returns a copy of b with the discount applied. The discount is
// clamped to [0, gross] so the total never goes negative.
func (b Breakdown) WithDiscount(discount decimal.Decimal) Breakdown {
	gross := b.gross()
	switch {
	case discount.IsNegative():
		discount = decimal.Zero
	case discount.GreaterThan(gross):
		discount = gross
	}
	b.Discount = discount
	b.Total = gross.Sub(discount)
	return b
}

func (b Breakdown) gross() decimal.Decimal {
	return b.Subtotal.Add(b.ShippingCost).Add(b.Tax)
}
