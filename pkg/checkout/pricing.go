package checkout

import "github.com/shopspring/decimal"

// Pricing holds the shipping rules applied to a cart subtotal.
type Pricing struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
}

// DefaultPricing ships free above 50 and charges 5.99 otherwise.
func DefaultPricing() Pricing {
	return Pricing{
		FreeShippingThreshold: decimal.NewFromInt(50),
		FlatShippingFee:       decimal.RequireFromString("5.99"),
	}
}

// PricingFromFloats builds Pricing from configuration values.
func PricingFromFloats(threshold, flatFee float64) Pricing {
	return Pricing{
		FreeShippingThreshold: decimal.NewFromFloat(threshold),
		FlatShippingFee:       decimal.NewFromFloat(flatFee),
	}
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// FreeShipping reports whether the order ships at no cost.
func (t Totals) FreeShipping() bool {
	return t.Shipping.IsZero()
}

// ComputeTotals applies the shipping rule. Shipping is free only when the
// subtotal is strictly above the threshold. Tax is not charged.
func ComputeTotals(subtotal decimal.Decimal, pricing Pricing) Totals {
	shipping := pricing.FlatShippingFee
	if subtotal.GreaterThan(pricing.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := decimal.Zero
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}
