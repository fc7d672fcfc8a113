package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/huulo/storefront/internal/domain"
	"github.com/huulo/storefront/internal/payment"
)

// validateShipping checks the required fields. City and state are optional.
func validateShipping(d domain.ShippingDetails) FieldErrors {
	fe := FieldErrors{}
	if strings.TrimSpace(d.FullName) == "" {
		fe["full_name"] = "full name is required"
	}
	if strings.TrimSpace(d.PhoneNumber) == "" {
		fe["phone_number"] = "phone number is required"
	}
	if strings.TrimSpace(d.Address) == "" {
		fe["address"] = "address is required"
	}
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// SubmitShipping validates the details and, when valid, moves the session to
// Submitting and initiates payment for subtotal plus shipping fee. On invalid
// details the session stays in Shipping and the FieldErrors describe what to
// fix. If the provider cannot even be reached the session returns to Review
// with the cart intact, so the shopper may retry.
func (o *Orchestrator) SubmitShipping(ctx context.Context, details domain.ShippingDetails) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.step != domain.StepShipping {
		return fmt.Errorf("%w: submit shipping in %s", ErrIllegalTransition, o.step)
	}

	if fe := validateShipping(details); fe != nil {
		return fe
	}
	o.shipping = details

	if err := o.transition(domain.StepSubmitting); err != nil {
		return err
	}

	subtotal := o.cart.Total()
	cfg := payment.Config{
		Reference:  o.paymentRef,
		Amount:     subtotal + ShippingFee(subtotal),
		PayerEmail: o.user.Email,
	}
	if err := o.payments.Initiate(ctx, cfg, o.HandlePaymentSuccess, o.HandlePaymentClose); err != nil {
		// Payment never started, so this is recoverable: back to Review.
		o.step = domain.StepReview
		o.notice = "payment could not be started"
		return fmt.Errorf("initiate payment: %w", err)
	}
	return nil
}

// ShippingDetails returns the collected delivery information.
func (o *Orchestrator) ShippingDetails() domain.ShippingDetails {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.shipping
}
