// Package catalog provides read access to the product catalog.
package catalog

import (
	"context"
	"errors"

	"github.com/huulo/storefront/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// Lister fetches catalog products by category. The bundle selector uses it to
// populate companion-game choices for a console.
type Lister interface {
	ListByCategory(ctx context.Context, category string) ([]domain.Product, error)
}

// Getter fetches a single product by ID.
type Getter interface {
	Get(ctx context.Context, id string) (domain.Product, error)
}
