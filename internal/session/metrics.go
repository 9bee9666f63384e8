package session

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"maturity/internal/remote"
)

const metricsNamespace = "maturity"

// Metrics are the prometheus collectors for a [Store] and its remote client.
// A nil *Metrics records nothing.
type Metrics struct {
	Fetches       *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	StaleDiscards prometheus.Counter
	Products      prometheus.Gauge
	StageAttempts *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "session",
			Name:      "fetches_total",
			Help:      "Product list fetches by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "session",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of product list fetches.",
			Buckets:   prometheus.DefBuckets,
		}),
		StaleDiscards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "session",
			Name:      "stale_discards_total",
			Help:      "Fetch responses discarded because a newer fetch was applied or the store was stopped.",
		}),
		Products: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "session",
			Name:      "products",
			Help:      "Products in the last applied fetch.",
		}),
		StageAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "remote",
			Name:      "stage_change_attempts_total",
			Help:      "Stage change requests by candidate and outcome.",
		}, []string{"candidate", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.Fetches, m.FetchDuration, m.StaleDiscards, m.Products, m.StageAttempts)
	}
	return m
}

// ObserveAttempt counts one stage-change candidate request. Pass it to
// [remote.WithAttemptObserver].
func (m *Metrics) ObserveAttempt(a remote.Attempt) {
	if m == nil {
		return
	}
	m.StageAttempts.WithLabelValues(a.Candidate.Name, a.Outcome.String()).Inc()
}

func (m *Metrics) observeFetch(err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.Fetches.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) staleDiscard() {
	if m == nil {
		return
	}
	m.StaleDiscards.Inc()
}

func (m *Metrics) setProducts(n int) {
	if m == nil {
		return
	}
	m.Products.Set(float64(n))
}
