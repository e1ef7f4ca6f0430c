// Package pricing holds the pure money arithmetic used by checkout and cart.
// Every exported amount is rounded half-up to cents.
package pricing

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const centsPlaces = 2

// DefaultTaxRate is the flat rate applied to the subtotal.
var DefaultTaxRate = decimal.RequireFromString("0.10")

// Line is one priced cart or order row.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
	// Weight is per unit in kilograms; nil counts as zero.
	Weight *decimal.Decimal
}

// ShippingRate is the pricing shape of a shipping method.
type ShippingRate struct {
	BaseCost  decimal.Decimal
	CostPerKg decimal.Decimal
}

// Breakdown is the full set of order amounts.
type Breakdown struct {
	Subtotal    decimal.Decimal
	Shipping    decimal.Decimal
	Tax         decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
	TotalWeight decimal.Decimal
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(centsPlaces)
}

// LineTotal is unit price times quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return round(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// Subtotal sums the line totals.
func Subtotal(lines []Line) decimal.Decimal {
	return lo.Reduce(lines, func(acc decimal.Decimal, line Line, _ int) decimal.Decimal {
		return acc.Add(LineTotal(line.UnitPrice, line.Quantity))
	}, decimal.Zero)
}

// TotalWeight sums weight times quantity; unweighted lines contribute zero.
func TotalWeight(lines []Line) decimal.Decimal {
	return lo.Reduce(lines, func(acc decimal.Decimal, line Line, _ int) decimal.Decimal {
		if line.Weight == nil {
			return acc
		}
		return acc.Add(line.Weight.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}, decimal.Zero)
}

// ShippingCost is base cost plus weight times the per-kg cost.
func ShippingCost(rate ShippingRate, totalWeight decimal.Decimal) decimal.Decimal {
	return round(rate.BaseCost.Add(totalWeight.Mul(rate.CostPerKg)))
}

// Tax applies rate to the subtotal.
func Tax(subtotal, rate decimal.Decimal) decimal.Decimal {
	return round(subtotal.Mul(rate))
}

// Total is subtotal + shipping + tax - discount, floored at zero.
func Total(subtotal, shipping, tax, discount decimal.Decimal) decimal.Decimal {
	total := round(subtotal.Add(shipping).Add(tax).Sub(discount))
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// Quote prices lines with the given shipping rate and tax rate. Discounts are
// not modelled yet and are always zero.
func Quote(lines []Line, rate ShippingRate, taxRate decimal.Decimal) Breakdown {
	subtotal := Subtotal(lines)
	weight := TotalWeight(lines)
	shipping := ShippingCost(rate, weight)
	tax := Tax(subtotal, taxRate)
	discount := decimal.Zero
	return Breakdown{
		Subtotal:    subtotal,
		Shipping:    shipping,
		Tax:         tax,
		Discount:    discount,
		Total:       Total(subtotal, shipping, tax, discount),
		TotalWeight: weight,
	}
}
