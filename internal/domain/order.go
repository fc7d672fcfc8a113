package domain

import "time"

// Order statuses as stored by the persistence backend.
const (
	OrderStatusPaid = "paid"
)

// Order is the record created after a successful payment. Shipping fields are
// flattened to match the backend's column names.
type Order struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	TotalAmount      int64     `json:"total_amount"`
	Status           string    `json:"status"`
	PaymentReference string    `json:"payment_reference"`
	FullName         string    `json:"full_name"`
	PhoneNumber      string    `json:"phone_number"`
	ShippingAddress  string    `json:"shipping_address"`
	City             string    `json:"city"`
	State            string    `json:"state"`
	CreatedAt        time.Time `json:"created_at"`
}

// OrderItem is an immutable snapshot of one cart line item at submission time.
// Later edits to the product catalog do not affect it. SelectedGames lands in
// the backend's metadata.selectedGames field.
type OrderItem struct {
	OrderID       string            `json:"order_id"`
	ProductID     string            `json:"product_id"`
	ProductName   string            `json:"product_name"`
	Quantity      int               `json:"quantity"`
	Price         int64             `json:"price"`
	Image         string            `json:"image"`
	SelectedGames []BundleSelection `json:"selected_games,omitempty"`
}

// OrderItemsFromCart snapshots the given line items for persistence.
func OrderItemsFromCart(items []CartLineItem) []OrderItem {
	snapshot := make([]OrderItem, len(items))
	for i, li := range items {
		snapshot[i] = OrderItem{
			ProductID:     li.ProductID,
			ProductName:   li.Name,
			Quantity:      li.Quantity,
			Price:         li.UnitPrice,
			Image:         li.ImageURL,
			SelectedGames: li.BundleSelections,
		}
	}
	return snapshot
}
