package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Ledgered payments by gateway and terminal status.",
		},
		[]string{"gateway", "status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "Total monetary value of approved payments, labeled by currency.",
		},
		[]string{"currency"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncPayment(gateway, status string) {
	paymentsTotal.WithLabelValues(norm(gateway), norm(status)).Inc()
}

func AddPaymentRevenue(currency string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}
