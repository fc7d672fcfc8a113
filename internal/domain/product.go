package domain

// Product is a catalog entry as served by the product backend.
// Price is an integer amount in naira; the storefront does not use minor units.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Image    string `json:"image"`
	Category string `json:"category"`
	Price    int64  `json:"price"`
}

// LineItem converts a product into a fresh cart line item with the given
// quantity and bundle selections.
func (p Product) LineItem(quantity int, selections []BundleSelection) CartLineItem {
	return CartLineItem{
		ProductID:        p.ID,
		Name:             p.Name,
		UnitPrice:        p.Price,
		Category:         p.Category,
		ImageURL:         p.Image,
		Quantity:         quantity,
		BundleSelections: selections,
	}
}
