package server

import (
	"net/http"

	"github.com/huulo/storefront/internal/domain"
)

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		category = domain.CategoryConsole
	}

	products, err := s.catalog.ListByCategory(r.Context(), category)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "catalog_error", "failed to list products")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

func (s *Server) handleOrderHistory(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)

	orderList, err := s.history.GetOrdersByUser(r.Context(), session.User.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "orders_error", "failed to load order history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orderList,
		"count":  len(orderList),
	})
}
