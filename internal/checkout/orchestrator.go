// Package checkout drives the multi-step checkout state machine:
// Review -> BundleRequired (looping until every bundle-eligible item is
// resolved) -> Shipping -> Submitting -> Complete or Failed. Closing the
// payment flow returns the session to Review.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/huulo/storefront/internal/auth"
	"github.com/huulo/storefront/internal/cart"
	"github.com/huulo/storefront/internal/domain"
	"github.com/huulo/storefront/internal/orders"
	"github.com/huulo/storefront/internal/payment"
)

// NoticePaymentCancelled is the informational message shown when the shopper
// closes the payment flow. It is not an error.
const NoticePaymentCancelled = "payment cancelled"

// Orchestrator is one checkout session. It is discarded on Complete; on
// Failed the session is dead but the cart remains shoppable. All methods are
// serialized: cart mutations, bundle resolution and payment callbacks never
// interleave.
type Orchestrator struct {
	mu sync.Mutex

	cart     *cart.Store
	gateway  orders.Gateway
	payments payment.Provider
	user     auth.User

	step          domain.Step
	shipping      domain.ShippingDetails
	paymentRef    string
	pendingBundle *domain.CartLineItem
	notice        string
	failure       error
	orderID       string
}

// New starts a checkout session over the current cart. The payment reference
// is generated here and never changes for the life of the session.
func New(cartStore *cart.Store, gateway orders.Gateway, payments payment.Provider, user auth.User) (*Orchestrator, error) {
	if user.ID == "" {
		return nil, ErrNotAuthenticated
	}
	if cartStore.Empty() {
		return nil, ErrEmptyCart
	}

	return &Orchestrator{
		cart:       cartStore,
		gateway:    gateway,
		payments:   payments,
		user:       user,
		step:       domain.StepReview,
		paymentRef: uuid.New().String(),
	}, nil
}

// Proceed advances out of Review. If any bundle-eligible line item has no
// bundle selections, the session enters BundleRequired with the first such
// item as the pending target; otherwise it moves straight to Shipping.
func (o *Orchestrator) Proceed(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.step != domain.StepReview {
		return fmt.Errorf("%w: proceed from %s", ErrIllegalTransition, o.step)
	}
	o.notice = ""
	return o.scanBundles()
}

// BundleResolved is called after the bundle selector committed a selection for
// the pending target. The cart is re-scanned: the next unresolved item becomes
// the new pending target, or the session advances to Shipping.
func (o *Orchestrator) BundleResolved(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.step != domain.StepBundleRequired {
		return fmt.Errorf("%w: bundle resolved in %s", ErrIllegalTransition, o.step)
	}
	return o.scanBundles()
}

// BundleCancelled is called when the selector was dismissed without a commit.
// The session returns to Review without advancing.
func (o *Orchestrator) BundleCancelled() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.step != domain.StepBundleRequired {
		return fmt.Errorf("%w: bundle cancelled in %s", ErrIllegalTransition, o.step)
	}
	o.pendingBundle = nil
	return o.transition(domain.StepReview)
}

// scanBundles re-runs the Review precondition and transitions accordingly.
// Caller holds o.mu.
func (o *Orchestrator) scanBundles() error {
	for _, li := range o.cart.Items() {
		if li.BundleEligible() && len(li.BundleSelections) == 0 {
			item := li
			o.pendingBundle = &item
			return o.transition(domain.StepBundleRequired)
		}
	}
	o.pendingBundle = nil
	return o.transition(domain.StepShipping)
}

func (o *Orchestrator) transition(to domain.Step) error {
	if !domain.CanTransition(o.step, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.step, to)
	}
	slog.Debug("checkout step transition", "from", o.step, "to", to, "reference", o.paymentRef)
	o.step = to
	return nil
}

// Step returns the session's current position in the state machine.
func (o *Orchestrator) Step() domain.Step {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.step
}

// PendingBundleTarget returns the line item awaiting bundle resolution, if
// the session is in BundleRequired.
func (o *Orchestrator) PendingBundleTarget() (domain.CartLineItem, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pendingBundle == nil {
		return domain.CartLineItem{}, false
	}
	return *o.pendingBundle, true
}

// PaymentReference is the immutable reference generated at session start.
func (o *Orchestrator) PaymentReference() string {
	return o.paymentRef
}

// Notice is the current informational message, e.g. after a cancelled
// payment. Empty when there is none.
func (o *Orchestrator) Notice() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.notice
}

// Failure returns the terminal error when the session is in Failed.
func (o *Orchestrator) Failure() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failure
}

// OrderID returns the persisted order's ID once the session is Complete.
func (o *Orchestrator) OrderID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.orderID
}

// Subtotal, Fee and Total describe the session's money amounts. The fee is
// recomputed from the live cart on every call.
func (o *Orchestrator) Subtotal() int64 {
	return o.cart.Total()
}

func (o *Orchestrator) Fee() int64 {
	return ShippingFee(o.cart.Total())
}

func (o *Orchestrator) Total() int64 {
	subtotal := o.cart.Total()
	return subtotal + ShippingFee(subtotal)
}
