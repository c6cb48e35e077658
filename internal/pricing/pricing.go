// Package pricing computes the subtotal/shipping/tax/total aggregate shared
// by the cart endpoint, checkout and the stored order record. Every view must
// go through here so the figures never drift apart.
package pricing

import (
	"math"

	"github.com/lighthub/lighthub/internal/models"
)

const (
	TaxRate = 0.075

	ShippingStandardFee  = 2_000
	ShippingExpressFee   = 5_000
	ShippingOvernightFee = 10_000

	// Cart view only: checkout always charges the selected tier.
	FreeShippingThreshold = 50_000
)

type Quote struct {
	Subtotal       int64 `json:"subtotal"`
	DiscountAmount int64 `json:"discountAmount"`
	Shipping       int64 `json:"shipping"`
	Tax            int64 `json:"tax"`
	Total          int64 `json:"total"`
}

func Subtotal(items []models.OrderItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.Price * it.Quantity
	}
	return sum
}

// MethodFee returns the flat checkout fee for a shipping method.
// Unknown methods fall back to the standard tier.
func MethodFee(method string) int64 {
	switch method {
	case models.ShippingExpress:
		return ShippingExpressFee
	case models.ShippingOvernight:
		return ShippingOvernightFee
	default:
		return ShippingStandardFee
	}
}

// CartShipping is the cart-view policy: free over the threshold, flat
// standard fee otherwise. Deliberately independent from MethodFee.
func CartShipping(subtotal int64) int64 {
	if subtotal > FreeShippingThreshold {
		return 0
	}
	return ShippingStandardFee
}

func Tax(subtotalAfterDiscount int64) int64 {
	return int64(math.Round(float64(subtotalAfterDiscount) * TaxRate))
}

// Checkout builds the quote for an order: discount applies to the subtotal
// before tax, tax applies to the discounted subtotal, shipping is the
// method's flat fee.
func Checkout(items []models.OrderItem, method string, discountAmount int64) Quote {
	subtotal := Subtotal(items)
	if discountAmount > subtotal {
		discountAmount = subtotal
	}
	shipping := MethodFee(method)
	tax := Tax(subtotal - discountAmount)
	return Quote{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		Shipping:       shipping,
		Tax:            tax,
		Total:          (subtotal - discountAmount) + shipping + tax,
	}
}

// Cart is the cart-view quote: no discount, threshold shipping.
func Cart(items []models.OrderItem) Quote {
	subtotal := Subtotal(items)
	shipping := CartShipping(subtotal)
	tax := Tax(subtotal)
	return Quote{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal + shipping + tax,
	}
}
