package checkout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_completed_total",
		Help: "Checkouts that reached Complete with the order recorded.",
	})
	paymentsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_payments_cancelled_total",
		Help: "Payment flows the shopper closed without paying.",
	})
	reconciliationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_reconciliation_failures_total",
		Help: "Checkouts where payment was captured but the order was not recorded.",
	})
)
