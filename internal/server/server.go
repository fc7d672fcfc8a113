// Package server exposes the storefront core over HTTP. It is a thin layer:
// every operation delegates to the cart store, bundle selector, checkout
// orchestrator or one of the collaborator gateways.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/huulo/storefront/internal/auth"
	"github.com/huulo/storefront/internal/catalog"
	"github.com/huulo/storefront/internal/domain"
	"github.com/huulo/storefront/internal/orders"
	"github.com/huulo/storefront/internal/payment"
)

// paymentGateway is payment.Provider plus the settlement entry points the
// webhook handlers need.
type paymentGateway interface {
	payment.Provider
	Resolve(ctx context.Context, reference string) error
	Abandon(ctx context.Context, reference string) error
}

// orderHistory serves the shopper's past orders.
type orderHistory interface {
	GetOrdersByUser(ctx context.Context, userID string) ([]*domain.Order, error)
}

type Server struct {
	catalog       catalog.Lister
	products      catalog.Getter
	gateway       orders.Gateway
	history       orderHistory
	payments      paymentGateway
	sessions      *Sessions
	verifier      *auth.Verifier
	webhookSecret string
}

type Config struct {
	Catalog  catalog.Lister
	Products catalog.Getter
	Gateway  orders.Gateway
	History  orderHistory
	Payments paymentGateway
	Sessions *Sessions
	Verifier *auth.Verifier
	// WebhookSecret keys the HMAC check on provider webhooks; for Paystack
	// this is the account's secret key.
	WebhookSecret string
}

func New(cfg Config) *Server {
	return &Server{
		catalog:       cfg.Catalog,
		products:      cfg.Products,
		gateway:       cfg.Gateway,
		history:       cfg.History,
		payments:      cfg.Payments,
		sessions:      cfg.Sessions,
		verifier:      cfg.Verifier,
		webhookSecret: cfg.WebhookSecret,
	}
}

// Routes builds the router. The payment webhook sits outside the auth group:
// it is called by the provider, not the shopper.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/payments/webhook", s.handlePaymentWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.verifier.Middleware)

		r.Get("/products", s.handleListProducts)
		r.Get("/orders", s.handleOrderHistory)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.handleGetCart)
			r.Delete("/", s.handleClearCart)
			r.Post("/items", s.handleAddItem)
			r.Patch("/items/{productID}", s.handleUpdateQuantity)
			r.Delete("/items/{productID}", s.handleRemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", s.handleStartCheckout)
			r.Get("/", s.handleCheckoutState)
			r.Post("/proceed", s.handleProceed)
			r.Post("/bundle/toggle", s.handleBundleToggle)
			r.Post("/bundle/commit", s.handleBundleCommit)
			r.Post("/bundle/cancel", s.handleBundleCancel)
			r.Post("/shipping", s.handleSubmitShipping)
			r.Post("/payment/abandon", s.handleAbandonPayment)
		})
	})

	return r
}
