package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once       sync.Once
	collectors []prometheus.Collector
)

// register collects the payment, enrollment and webhook collectors declared
// across this package; each file hands its collectors over from init().
func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister installs every collected metric into the default Prometheus
// registry. Safe to call more than once; only the first call registers.
func MustRegister() {
	once.Do(func() {
		if len(collectors) > 0 {
			prometheus.MustRegister(collectors...)
		}
	})
}
