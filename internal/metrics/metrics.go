// Package metrics holds the prometheus collectors scraped from /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Alturino/storefront/internal/constants"
)

const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

var (
	CheckoutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: constants.AppName,
		Name:      "checkout_total",
		Help:      "Checkouts by result.",
	}, []string{"result"})

	CartMutationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: constants.AppName,
		Name:      "cart_mutation_total",
		Help:      "Cart item mutations by operation.",
	}, []string{"operation"})

	OrderAdjustmentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: constants.AppName,
		Name:      "order_adjustment_total",
		Help:      "Order detail adjustments by operation.",
	}, []string{"operation"})

	LoginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: constants.AppName,
		Name:      "login_total",
		Help:      "Login attempts by result.",
	}, []string{"result"})
)
