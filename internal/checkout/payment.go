package checkout

import (
	"context"
	"log/slog"

	"github.com/huulo/storefront/internal/domain"
)

// HandlePaymentSuccess is the success continuation handed to the payment
// provider. The charge is already captured when it runs, so any persistence
// failure from here on is the reconciliation case: the session fails with the
// payment reference attached and the cart is deliberately preserved.
func (o *Orchestrator) HandlePaymentSuccess(ctx context.Context, reference string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.step != domain.StepSubmitting {
		slog.Warn("payment success callback outside Submitting, ignored",
			"step", o.step, "reference", reference)
		return
	}

	orderID, err := o.persistOrder(ctx)
	if err != nil {
		o.failure = &ReconciliationError{PaymentReference: reference, Err: err}
		o.step = domain.StepFailed
		reconciliationFailures.Inc()
		slog.Error("order persistence failed after payment",
			"reference", reference, "error", err)
		return
	}

	if err := o.cart.Clear(ctx); err != nil {
		// The order is recorded; a failed snapshot write must not fail the
		// checkout. The stale snapshot is overwritten on the next mutation.
		slog.Warn("cart clear failed after order creation", "order_id", orderID, "error", err)
	}

	o.orderID = orderID
	o.step = domain.StepComplete
	ordersCompleted.Inc()
	slog.Info("checkout complete", "order_id", orderID, "reference", reference)
}

// HandlePaymentClose is the close continuation: the shopper dismissed the
// payment flow without paying. The session returns to Review with an
// informational notice; the cart is untouched and no order exists.
func (o *Orchestrator) HandlePaymentClose(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.step != domain.StepSubmitting {
		slog.Warn("payment close callback outside Submitting, ignored", "step", o.step)
		return
	}

	o.step = domain.StepReview
	o.notice = NoticePaymentCancelled
	paymentsCancelled.Inc()
	slog.Info("payment cancelled by shopper", "reference", o.paymentRef)
}

// persistOrder runs the two-step saga: the order row first, then the line
// items. The steps are not atomic; a failure in either surfaces to the caller
// and is never retried silently. Caller holds o.mu.
func (o *Orchestrator) persistOrder(ctx context.Context) (string, error) {
	subtotal := o.cart.Total()
	order := &domain.Order{
		UserID:           o.user.ID,
		TotalAmount:      subtotal + ShippingFee(subtotal),
		Status:           domain.OrderStatusPaid,
		PaymentReference: o.paymentRef,
		FullName:         o.shipping.FullName,
		PhoneNumber:      o.shipping.PhoneNumber,
		ShippingAddress:  o.shipping.Address,
		City:             o.shipping.City,
		State:            o.shipping.State,
	}

	orderID, err := o.gateway.CreateOrder(ctx, order)
	if err != nil {
		return "", err
	}

	items := domain.OrderItemsFromCart(o.cart.Items())
	if err := o.gateway.CreateOrderItems(ctx, orderID, items); err != nil {
		return "", err
	}

	return orderID, nil
}
