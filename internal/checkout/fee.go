package checkout

// Shipping fee policy: a flat fee unless the subtotal clears the
// free-shipping threshold. Amounts in naira.
const (
	FlatShippingFee       int64 = 5000
	FreeShippingThreshold int64 = 1000000
)

// ShippingFee is a pure function of the subtotal, recomputed on every total
// display and never cached.
func ShippingFee(subtotal int64) int64 {
	if subtotal > FreeShippingThreshold {
		return 0
	}
	return FlatShippingFee
}
