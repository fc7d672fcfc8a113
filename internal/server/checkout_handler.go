package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/huulo/storefront/internal/bundle"
	"github.com/huulo/storefront/internal/checkout"
	"github.com/huulo/storefront/internal/domain"
)

type checkoutResponse struct {
	Step             string               `json:"step"`
	Subtotal         int64                `json:"subtotal"`
	ShippingFee      int64                `json:"shipping_fee"`
	Total            int64                `json:"total"`
	TotalDisplay     string               `json:"total_display"`
	PaymentReference string               `json:"payment_reference,omitempty"`
	OrderID          string               `json:"order_id,omitempty"`
	Notice           string               `json:"notice,omitempty"`
	Failure          string               `json:"failure,omitempty"`
	Bundle           *bundleStateResponse `json:"bundle,omitempty"`
}

type bundleStateResponse struct {
	Target     domain.CartLineItem      `json:"target"`
	Companions []domain.Product         `json:"companions"`
	Draft      []domain.BundleSelection `json:"draft"`
}

type bundleToggleRequest struct {
	ProductID string `json:"product_id"`
}

type bundleCommitRequest struct {
	ConfirmEmpty bool `json:"confirm_empty"`
}

func newCheckoutResponse(session *Session) checkoutResponse {
	orch := session.Checkout
	resp := checkoutResponse{
		Step:         string(orch.Step()),
		Subtotal:     orch.Subtotal(),
		ShippingFee:  orch.Fee(),
		Total:        orch.Total(),
		TotalDisplay: domain.FormatNGN(orch.Total()),
		Notice:       orch.Notice(),
		OrderID:      orch.OrderID(),
	}
	if orch.Step() == domain.StepSubmitting {
		resp.PaymentReference = orch.PaymentReference()
	}
	if err := orch.Failure(); err != nil {
		resp.Failure = err.Error()
	}
	if sel := session.Selector; sel != nil && sel.IsOpen() {
		if target, ok := orch.PendingBundleTarget(); ok {
			resp.Bundle = &bundleStateResponse{
				Target:     target,
				Companions: sel.Companions(),
				Draft:      sel.Draft(),
			}
		}
	}
	return resp
}

// activeCheckout returns the session with its lock held; the caller must
// release it. Two requests from the same shopper would otherwise race on the
// Checkout/Selector pointers.
func (s *Server) activeCheckout(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	session := s.session(r)
	session.mu.Lock()
	if session.Checkout == nil {
		session.mu.Unlock()
		respondError(w, http.StatusConflict, "no_checkout", "no active checkout")
		return nil, false
	}
	return session, true
}

func (s *Server) handleStartCheckout(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.Checkout != nil && !session.Checkout.Step().IsTerminal() {
		respondError(w, http.StatusConflict, "checkout_in_progress", "a checkout is already in progress")
		return
	}

	orch, err := checkout.New(session.Cart, s.gateway, s.payments, session.User)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
		case errors.Is(err, checkout.ErrNotAuthenticated):
			respondError(w, http.StatusUnauthorized, "not_authenticated", "sign in to check out")
		default:
			respondError(w, http.StatusInternalServerError, "checkout_error", "failed to start checkout")
		}
		return
	}

	session.Checkout = orch
	session.Selector = nil
	respondJSON(w, http.StatusCreated, newCheckoutResponse(session))
}

func (s *Server) handleCheckoutState(w http.ResponseWriter, r *http.Request) {
	session, ok := s.activeCheckout(w, r)
	if !ok {
		return
	}
	defer session.mu.Unlock()
	respondJSON(w, http.StatusOK, newCheckoutResponse(session))
}

func (s *Server) handleProceed(w http.ResponseWriter, r *http.Request) {
	session, ok := s.activeCheckout(w, r)
	if !ok {
		return
	}
	defer session.mu.Unlock()
	if err := session.Checkout.Proceed(r.Context()); err != nil {
		s.respondCheckoutError(w, err)
		return
	}
	if err := s.syncSelector(r, session); err != nil {
		respondError(w, http.StatusInternalServerError, "bundle_error", "failed to load companion games")
		return
	}
	respondJSON(w, http.StatusOK, newCheckoutResponse(session))
}

// syncSelector opens the bundle selector when the checkout is waiting on a
// bundle decision, and drops it otherwise.
func (s *Server) syncSelector(r *http.Request, session *Session) error {
	if session.Checkout.Step() != domain.StepBundleRequired {
		session.Selector = nil
		return nil
	}
	target, ok := session.Checkout.PendingBundleTarget()
	if !ok {
		session.Selector = nil
		return nil
	}
	if session.Selector != nil && session.Selector.IsOpen() && session.Selector.TargetID() == target.ProductID {
		return nil
	}
	sel := bundle.NewSelector(session.Cart, s.catalog)
	if err := sel.Open(r.Context(), target); err != nil {
		return err
	}
	session.Selector = sel
	return nil
}

func (s *Server) handleBundleToggle(w http.ResponseWriter, r *http.Request) {
	session, ok := s.activeCheckout(w, r)
	if !ok {
		return
	}
	defer session.mu.Unlock()
	if session.Selector == nil || !session.Selector.IsOpen() {
		respondError(w, http.StatusConflict, "no_bundle", "no bundle selection in progress")
		return
	}

	var req bundleToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	var companion *domain.Product
	for _, p := range session.Selector.Companions() {
		if p.ID == req.ProductID {
			companion = &p
			break
		}
	}
	if companion == nil {
		respondError(w, http.StatusNotFound, "product_not_found", "not an offered companion game")
		return
	}
	if err := session.Selector.Toggle(*companion); err != nil {
		respondError(w, http.StatusConflict, "bundle_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, newCheckoutResponse(session))
}

func (s *Server) handleBundleCommit(w http.ResponseWriter, r *http.Request) {
	session, ok := s.activeCheckout(w, r)
	if !ok {
		return
	}
	defer session.mu.Unlock()
	if session.Selector == nil || !session.Selector.IsOpen() {
		respondError(w, http.StatusConflict, "no_bundle", "no bundle selection in progress")
		return
	}

	var req bundleCommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	if err := session.Selector.Commit(r.Context(), req.ConfirmEmpty); err != nil {
		if errors.Is(err, bundle.ErrEmptySelection) {
			respondError(w, http.StatusConflict, "empty_selection", "no games selected; confirm to continue without a bundle")
			return
		}
		respondError(w, http.StatusInternalServerError, "bundle_error", "failed to save bundle selection")
		return
	}
	if err := session.Checkout.BundleResolved(r.Context()); err != nil {
		s.respondCheckoutError(w, err)
		return
	}
	// Another console may still be waiting on its own bundle decision.
	if err := s.syncSelector(r, session); err != nil {
		respondError(w, http.StatusInternalServerError, "bundle_error", "failed to load companion games")
		return
	}
	respondJSON(w, http.StatusOK, newCheckoutResponse(session))
}

func (s *Server) handleBundleCancel(w http.ResponseWriter, r *http.Request) {
	session, ok := s.activeCheckout(w, r)
	if !ok {
		return
	}
	defer session.mu.Unlock()
	if session.Selector != nil {
		session.Selector.Cancel()
		session.Selector = nil
	}
	if err := session.Checkout.BundleCancelled(); err != nil {
		s.respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCheckoutResponse(session))
}

func (s *Server) handleSubmitShipping(w http.ResponseWriter, r *http.Request) {
	session, ok := s.activeCheckout(w, r)
	if !ok {
		return
	}
	defer session.mu.Unlock()

	var details domain.ShippingDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	if err := session.Checkout.SubmitShipping(r.Context(), details); err != nil {
		var fields checkout.FieldErrors
		if errors.As(err, &fields) {
			respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error:  "shipping details are incomplete",
				Code:   "invalid_shipping",
				Fields: fields,
			})
			return
		}
		s.respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCheckoutResponse(session))
}

func (s *Server) handleAbandonPayment(w http.ResponseWriter, r *http.Request) {
	session, ok := s.activeCheckout(w, r)
	if !ok {
		return
	}
	defer session.mu.Unlock()
	if err := s.payments.Abandon(r.Context(), session.Checkout.PaymentReference()); err != nil {
		s.respondPaymentError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCheckoutResponse(session))
}

func (s *Server) respondCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", "operation not allowed in the current checkout step")
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
	default:
		respondError(w, http.StatusInternalServerError, "checkout_error", "checkout operation failed")
	}
}
