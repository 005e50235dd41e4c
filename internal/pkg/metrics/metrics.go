package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whaleledger_operations_total",
		Help: "Ledger operations by outcome",
	}, []string{"op", "result"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "whaleledger_request_latency_seconds",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	RegistryTraders = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "whaleledger_registry_traders",
		Help: "Tracked traders per registry bucket",
	}, []string{"bucket"})

	SubscriptionRevenue = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whaleledger_subscription_revenue_total",
		Help: "Subscription payments collected, in base units",
	}, []string{"tier"})

	MovementEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whaleledger_movement_events_total",
		Help: "Movement notifications emitted",
	}, []string{"token", "direction"})

	StreamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "whaleledger_movement_stream_subscribers",
		Help: "Open movement websocket streams on this instance",
	})
)

// Observe records the outcome of one ledger operation.
func Observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	OperationsTotal.WithLabelValues(op, result).Inc()
}
