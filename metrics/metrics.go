// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the service counters. A nil *Metrics is a no-op, so
// tests can run the pipeline without touching the global registry.
type Metrics struct {
	LookupsTotal     *prometheus.CounterVec
	AttemptsTotal    prometheus.Counter
	RateLimitedTotal prometheus.Counter
	EmptyRecordTotal prometheus.Counter
	InFlight         prometheus.Gauge
}

// New registers the collectors on the default registry.
func New() *Metrics {
	return &Metrics{
		LookupsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "voterlookup_lookups_total",
			Help: "Completed lookups by final status (registered, not_registered, underage, out_of_district, error)",
		}, []string{"status"}),
		AttemptsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voterlookup_attempts_total",
			Help: "Total form interaction attempts, including retries",
		}),
		RateLimitedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voterlookup_rate_limited_total",
			Help: "Requests rejected by the sliding-window rate limiter",
		}),
		EmptyRecordTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voterlookup_empty_record_total",
			Help: "Registered outcomes where every field extracted empty; a rise usually means the registry page layout changed",
		}),
		InFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "voterlookup_in_flight_lookups",
			Help: "Lookups currently holding a browser permit",
		}),
	}
}

func (m *Metrics) ObserveLookup(status string) {
	if m == nil {
		return
	}
	m.LookupsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveAttempt() {
	if m == nil {
		return
	}
	m.AttemptsTotal.Inc()
}

func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.RateLimitedTotal.Inc()
}

func (m *Metrics) ObserveEmptyRecord() {
	if m == nil {
		return
	}
	m.EmptyRecordTotal.Inc()
}

func (m *Metrics) LookupStarted() {
	if m == nil {
		return
	}
	m.InFlight.Inc()
}

func (m *Metrics) LookupFinished() {
	if m == nil {
		return
	}
	m.InFlight.Dec()
}
