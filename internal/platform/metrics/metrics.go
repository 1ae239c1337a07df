// Package metrics registers the service's Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	registrations        prometheus.Counter
	registrationFailures *prometheus.CounterVec
	rewardsDistributed   prometheus.Counter
	rewardAmount         prometheus.Counter
	feeChanges           prometheus.Counter
	requestDuration      *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		registrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namegate_registrations_total",
			Help: "Total number of successful domain registrations",
		}),
		registrationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "namegate_registration_failures_total",
			Help: "Registrations rejected, by precondition",
		}, []string{"reason"}),
		rewardsDistributed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namegate_rewards_distributed_total",
			Help: "Total number of ancestor reward credits",
		}),
		rewardAmount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namegate_reward_amount_total",
			Help: "Total value distributed to ancestor controllers",
		}),
		feeChanges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "namegate_fee_changes_total",
			Help: "Total number of fee changes",
		}),
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "namegate_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// RegistrationCommitted records one successful registration and its payouts.
func (m *Metrics) RegistrationCommitted(credits int, distributed uint64) {
	m.registrations.Inc()
	m.rewardsDistributed.Add(float64(credits))
	m.rewardAmount.Add(float64(distributed))
}

// RegistrationRejected records a precondition failure by reason code.
func (m *Metrics) RegistrationRejected(reason string) {
	m.registrationFailures.WithLabelValues(reason).Inc()
}

// FeeChanged records one fee change.
func (m *Metrics) FeeChanged() {
	m.feeChanges.Inc()
}

// ObserveRequest records one HTTP request's latency.
func (m *Metrics) ObserveRequest(method, route, status string, duration time.Duration) {
	m.requestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}
