package domain

import (
	"sort"
	"strings"
)

// Catalog categories. Consoles are bundle-eligible: the shopper may attach
// companion games to a console line item before checkout completes.
const (
	CategoryConsole   = "Console"
	CategoryGame      = "Game"
	CategoryAccessory = "Accessory"
)

// BundleSelection is a companion product attached to a bundle-eligible line
// item. Selections are fulfillment metadata only and do not affect pricing.
type BundleSelection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CartLineItem is a single entry in the shopping cart. Uniqueness within a
// cart is keyed on (ProductID, BundleKey), so the same console held with two
// different game selections produces two independent line items.
type CartLineItem struct {
	ProductID        string            `json:"product_id"`
	Name             string            `json:"name"`
	UnitPrice        int64             `json:"price"`
	Category         string            `json:"category"`
	ImageURL         string            `json:"image"`
	Quantity         int               `json:"quantity"`
	BundleSelections []BundleSelection `json:"bundle_selections,omitempty"`
}

// BundleEligible reports whether the line item may carry bundle selections.
func (li CartLineItem) BundleEligible() bool {
	return li.Category == CategoryConsole
}

// BundleKey returns the normalized identity of the item's bundle selections:
// the sorted, comma-joined set of selection IDs. Empty selections yield "".
func (li CartLineItem) BundleKey() string {
	return NormalizedBundleKey(li.BundleSelections)
}

// Subtotal is the price contribution of this line item.
func (li CartLineItem) Subtotal() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

// NormalizedBundleKey computes the canonical key for a selection set.
// Order of the input is irrelevant.
func NormalizedBundleKey(selections []BundleSelection) string {
	if len(selections) == 0 {
		return ""
	}
	ids := make([]string, len(selections))
	for i, sel := range selections {
		ids[i] = sel.ID
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}
