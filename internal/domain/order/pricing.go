// internal/domain/order/pricing.go
package order

import (
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the flat tax applied to the subtotal
var DefaultTaxRate = decimal.RequireFromString("0.18")

// PricedLine is the minimum a line needs to be priced
type PricedLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals holds the computed money fields of an order
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Pricing computes order totals. Amounts are never rounded here.
type Pricing struct {
	TaxRate  decimal.Decimal
	Shipping decimal.Decimal
}

// DefaultPricing charges 18% tax and no shipping
func DefaultPricing() Pricing {
	return Pricing{TaxRate: DefaultTaxRate, Shipping: decimal.Zero}
}

// Subtotal is the sum of unit price times quantity
func Subtotal(lines []PricedLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// Compute prices lines: tax = subtotal × rate, total = subtotal + shipping + tax
func (p Pricing) Compute(lines []PricedLine) Totals {
	subtotal := Subtotal(lines)
	tax := subtotal.Mul(p.TaxRate)
	return Totals{
		Subtotal: subtotal,
		Shipping: p.Shipping,
		Tax:      tax,
		Total:    subtotal.Add(p.Shipping).Add(tax),
	}
}

// moneyEqual compares two amounts at cent precision
func moneyEqual(a, b decimal.Decimal) bool {
	return a.Round(2).Equal(b.Round(2))
}
