package cluster

import "github.com/prometheus/client_golang/prometheus"

// metrics are the ambient observability counters every routed request
// updates. They're intentionally coarse (no per-topic cardinality) since
// this is a client library, not a broker.
type metrics struct {
	requestsTotal      *prometheus.CounterVec
	retriesTotal       *prometheus.CounterVec
	metadataRefreshes  prometheus.Counter
	metadataErrors     prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zkless_kafka",
			Name:      "requests_total",
			Help:      "Total requests issued to brokers, by api and outcome.",
		}, []string{"api", "outcome"}),
		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zkless_kafka",
			Name:      "retries_total",
			Help:      "Total retry attempts, by reason.",
		}, []string{"reason"}),
		metadataRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zkless_kafka",
			Name:      "metadata_refreshes_total",
			Help:      "Total cluster metadata refreshes performed.",
		}),
		metadataErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zkless_kafka",
			Name:      "metadata_refresh_errors_total",
			Help:      "Total cluster metadata refreshes that failed.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requestsTotal, m.retriesTotal, m.metadataRefreshes, m.metadataErrors)
	}
	return m
}
