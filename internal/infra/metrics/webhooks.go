package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(webhookEventsTotal)
}

var webhookEventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gateway_events_total",
		Help: "Ingested gateway notifications by gateway and outcome.",
	},
	[]string{"gateway", "outcome"},
)

func IncWebhookOutcome(gateway, outcome string) {
	webhookEventsTotal.WithLabelValues(norm(gateway), norm(outcome)).Inc()
}
