package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		enrollmentsGrantedTotal,
		entitlementRetriesQueued,
		entitlementRetriesDrained,
		entitlementOutboxDepth,
	)
}

var (
	enrollmentsGrantedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrollments_granted_total",
			Help: "Enrollment mutations by kind (new/extended).",
		},
		[]string{"kind"},
	)

	entitlementRetriesQueued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "entitlement_retries_queued_total",
			Help: "Grants parked in the outbox after a post-payment write failure.",
		},
	)

	entitlementRetriesDrained = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entitlement_retries_drained_total",
			Help: "Outbox drain attempts by result (applied/rescheduled).",
		},
		[]string{"result"},
	)

	entitlementOutboxDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "entitlement_outbox_depth",
			Help: "Current number of pending entitlement rows.",
		},
	)
)

func IncEnrollmentGranted(kind string) {
	enrollmentsGrantedTotal.WithLabelValues(norm(kind)).Inc()
}

func IncEntitlementRetryQueued() {
	entitlementRetriesQueued.Inc()
}

func IncEntitlementRetryDrained(result string) {
	entitlementRetriesDrained.WithLabelValues(norm(result)).Inc()
}

func SetEntitlementOutboxDepth(n int) {
	entitlementOutboxDepth.Set(float64(n))
}
