// Package orders persists completed checkouts as order records.
package orders

import (
	"context"
	"errors"

	"github.com/huulo/storefront/internal/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicateReference means an order with this payment reference was
	// already recorded, which the unique constraint guards against.
	ErrDuplicateReference = errors.New("order with this payment reference already exists")
)

// Gateway is the two-step persistence contract the checkout orchestrator
// drives: the order row first, then one row per line item. The two steps are
// not transactional from the caller's point of view; the orchestrator handles
// partial failure as a reconciliation case.
type Gateway interface {
	// CreateOrder persists the order row and returns the assigned ID.
	CreateOrder(ctx context.Context, order *domain.Order) (string, error)

	// CreateOrderItems persists the line-item snapshots for an order.
	CreateOrderItems(ctx context.Context, orderID string, items []domain.OrderItem) error
}

// OutboxEvent is a pending integration event recorded alongside an order.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
}

// OutboxSource is implemented by stores that record integration events for
// asynchronous publication.
type OutboxSource interface {
	UnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventProcessed(ctx context.Context, id int64) error
}
