package domain

import "github.com/shopspring/decimal"

const Currency = "USD"

var (
	// TaxRate applied to every subtotal
	TaxRate = decimal.RequireFromString("0.13")
	// ShippingFlat is charged once per order that contains a physical item
	ShippingFlat = decimal.RequireFromString("15.00")
)

// Tax returns subtotal * TaxRate rounded to cents.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate).Round(2)
}

// Pricing is the breakdown stored on an order
type Pricing struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
}

// PriceItems computes the full order breakdown for the given lines.
func PriceItems(items []CartItem, discount decimal.Decimal) Pricing {
	subtotal := decimal.Zero
	shipping := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
		if it.Product.IsPhysical() {
			shipping = ShippingFlat
		}
	}
	tax := Tax(subtotal)
	return Pricing{
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: shipping,
		Discount:     discount,
		Total:        subtotal.Add(tax).Add(shipping).Sub(discount),
	}
}
