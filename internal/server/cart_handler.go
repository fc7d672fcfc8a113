package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/huulo/storefront/internal/auth"
	"github.com/huulo/storefront/internal/cart"
	"github.com/huulo/storefront/internal/catalog"
	"github.com/huulo/storefront/internal/checkout"
	"github.com/huulo/storefront/internal/domain"
)

type addItemRequest struct {
	ProductID        string                   `json:"product_id"`
	Quantity         int                      `json:"quantity"`
	BundleSelections []domain.BundleSelection `json:"bundle_selections,omitempty"`
}

type updateQuantityRequest struct {
	Delta int `json:"delta"`
}

type cartResponse struct {
	Items           []domain.CartLineItem `json:"items"`
	Count           int                   `json:"count"`
	Subtotal        int64                 `json:"subtotal"`
	ShippingFee     int64                 `json:"shipping_fee"`
	Total           int64                 `json:"total"`
	SubtotalDisplay string                `json:"subtotal_display"`
	TotalDisplay    string                `json:"total_display"`
}

func newCartResponse(c *cart.Store) cartResponse {
	subtotal := c.Total()
	fee := checkout.ShippingFee(subtotal)
	return cartResponse{
		Items:           c.Items(),
		Count:           c.Count(),
		Subtotal:        subtotal,
		ShippingFee:     fee,
		Total:           subtotal + fee,
		SubtotalDisplay: domain.FormatNGN(subtotal),
		TotalDisplay:    domain.FormatNGN(subtotal + fee),
	}
}

func (s *Server) session(r *http.Request) *Session {
	user, _ := auth.UserFromContext(r.Context())
	return s.sessions.ForUser(r.Context(), user)
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	respondJSON(w, http.StatusOK, newCartResponse(session.Cart))
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "missing_product", "product_id is required")
		return
	}

	product, err := s.products.Get(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "product_not_found", "product not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "catalog_error", "failed to look up product")
		return
	}

	session := s.session(r)
	if err := session.Cart.AddItem(r.Context(), product, req.Quantity, req.BundleSelections); err != nil {
		respondError(w, http.StatusInternalServerError, "cart_error", "failed to add item")
		return
	}
	respondJSON(w, http.StatusCreated, newCartResponse(session.Cart))
}

func (s *Server) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	session := s.session(r)
	err := session.Cart.UpdateQuantity(r.Context(), chi.URLParam(r, "productID"), req.Delta)
	if err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			respondError(w, http.StatusNotFound, "item_not_found", "item not in cart")
			return
		}
		respondError(w, http.StatusInternalServerError, "cart_error", "failed to update quantity")
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(session.Cart))
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	err := session.Cart.RemoveItem(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			respondError(w, http.StatusNotFound, "item_not_found", "item not in cart")
			return
		}
		respondError(w, http.StatusInternalServerError, "cart_error", "failed to remove item")
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(session.Cart))
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	if err := session.Cart.Clear(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "cart_error", "failed to clear cart")
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(session.Cart))
}
