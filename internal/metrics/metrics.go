// Package metrics holds the Prometheus collectors of the service.
// Collectors are package globals registered explicitly (no init()).
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "moviesearch"

// register registers cs with the default registry at most once per group.
func register(once *sync.Once, cs ...prometheus.Collector) {
	once.Do(func() {
		prometheus.MustRegister(cs...)
	})
}
