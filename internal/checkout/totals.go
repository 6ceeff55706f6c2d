// Package checkout turns a cart into an order: totals, address validation,
// the simulated GCash payment flow and the local order history.
package checkout

import "math"

const (
	TaxRate               = 0.12
	FreeShippingThreshold = 5000.0
	ShippingFee           = 150.0
)

type Totals struct {
	Subtotal float64
	Tax      float64
	Shipping float64
	Total    float64
}

// ComputeTotals applies VAT and the flat shipping fee. Shipping is waived
// for subtotals strictly above the threshold. Amounts are in pesos, rounded
// to the centavo.
func ComputeTotals(subtotal float64) Totals {
	tax := centavos(subtotal * TaxRate)
	shipping := ShippingFee
	if subtotal > FreeShippingThreshold {
		shipping = 0
	}
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    centavos(subtotal + tax + shipping),
	}
}

func centavos(v float64) float64 {
	return math.Round(v*100) / 100
}
