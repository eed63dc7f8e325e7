// Package metrics registers the gateway's Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the session gateway.
type Metrics struct {
	Evaluations      *prometheus.CounterVec
	HydrationRetries prometheus.Counter
	Logins           prometheus.Counter
	Logouts          prometheus.Counter
	Deactivations    prometheus.Counter
	GateDuration     *prometheus.HistogramVec
}

// New creates and registers all gateway metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "opsdash_session_evaluations_total",
			Help: "Evaluation passes of the session state machine, by converged state",
		}, []string{"state"}),
		HydrationRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "opsdash_session_hydration_retries_total",
			Help: "Scheduled profile hydration retries",
		}),
		Logins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "opsdash_session_logins_total",
			Help: "Successful interactive sign-ins",
		}),
		Logouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "opsdash_session_logouts_total",
			Help: "Logout operations",
		}),
		Deactivations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "opsdash_session_deactivations_total",
			Help: "Sessions terminated by a confirmed deactivation or missing identity",
		}),
		GateDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "opsdash_session_gate_duration_seconds",
			Help:    "Latency of the MFA and liveness gates",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}, []string{"gate"}),
	}
}
