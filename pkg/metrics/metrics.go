package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "checkout"

// SettlementOutcomes counts finished settlements by result kind.
var SettlementOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "settlement",
	Name:      "outcomes_total",
	Help:      "Total order settlements by outcome.",
}, []string{"outcome"})

// Compensations counts compensating actions by step and result.
var Compensations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "settlement",
	Name:      "compensations_total",
	Help:      "Total compensating actions by step and result.",
}, []string{"step", "result"})

// RecoveredSagas counts sagas swept by the recovery job.
var RecoveredSagas = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "settlement",
	Name:      "recovered_total",
	Help:      "Total stale sagas processed by the recovery sweep.",
}, []string{"result"})

// LedgerOperations counts ledger calls by operation and result.
var LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "operations_total",
	Help:      "Total store-credit ledger operations.",
}, []string{"operation", "result"})

// GatewayRequests counts payment processor calls by operation and result.
var GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "gateway",
	Name:      "requests_total",
	Help:      "Total payment processor requests.",
}, []string{"operation", "result"})

// GatewayLatency tracks payment processor round-trip time.
var GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "gateway",
	Name:      "request_duration_seconds",
	Help:      "Payment processor request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"operation"})

// Notifications counts notifier deliveries by channel and result.
var Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "notify",
	Name:      "deliveries_total",
	Help:      "Total notification deliveries by channel.",
}, []string{"channel", "result"})

// Alerts counts operator alerts raised by severity.
var Alerts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "alerts",
	Name:      "raised_total",
	Help:      "Total operator alerts raised.",
}, []string{"severity"})

// HTTPRequestDuration tracks API latency by route and status.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// Result maps an error to a metric label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
