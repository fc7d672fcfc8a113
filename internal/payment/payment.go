// Package payment integrates the third-party payment provider. The provider
// is fire-and-callback: Initiate registers the transaction, and exactly one of
// the two continuations fires later, when the provider reports an outcome or
// the shopper abandons the payment.
package payment

import (
	"context"
	"errors"
)

var ErrUnknownReference = errors.New("no pending transaction for reference")

// SuccessFunc is invoked once when the provider confirms the charge.
type SuccessFunc func(ctx context.Context, reference string)

// CloseFunc is invoked once when the shopper closes the payment flow without
// paying, or the provider reports the charge as not successful.
type CloseFunc func(ctx context.Context)

// Config describes one transaction. Amount is an integer naira amount; the
// provider's kobo multiplier is applied inside the client.
type Config struct {
	Reference  string
	Amount     int64
	PayerEmail string
}

// Provider initiates transactions. There is no caller-imposed timeout on the
// outcome: the checkout session stays in Submitting until a continuation
// fires.
type Provider interface {
	Initiate(ctx context.Context, cfg Config, onSuccess SuccessFunc, onClose CloseFunc) error
}
