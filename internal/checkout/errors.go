package checkout

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrNotAuthenticated  = errors.New("checkout requires a signed-in user")
	ErrIllegalTransition = errors.New("illegal checkout step transition")
)

// FieldErrors maps shipping field names to validation messages. It is
// recoverable: the session stays in Shipping and the shopper corrects the
// fields.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("invalid shipping details: %s", strings.Join(fields, ", "))
}

// ReconciliationError is the one non-recoverable failure in the flow: the
// payment was captured but the order could not be recorded. It carries the
// payment reference so support can reconcile manually; the cart is preserved.
type ReconciliationError struct {
	PaymentReference string
	Err              error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("payment captured but order not recorded (reference %s): %v", e.PaymentReference, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}
