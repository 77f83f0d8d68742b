package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Storefront records cart, storage and checkout activity.
type Storefront struct {
	mutations       *prometheus.CounterVec
	broadcasts      *prometheus.CounterVec
	storageFailures *prometheus.CounterVec
	checkout        *prometheus.HistogramVec
}

// NewStorefront registers the storefront metrics on the provided registerer.
// A nil registerer yields a collector whose methods are no-ops.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations that changed the stored cart.",
	}, []string{"op"})
	broadcasts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_broadcasts_total",
		Help: "Cart change notifications delivered to subscribers.",
	}, []string{"source"})
	storageFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_failures_total",
		Help: "Storage operations that failed and were absorbed.",
	}, []string{"op"})
	checkout := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_session_duration_seconds",
		Help:    "Latency of checkout session creation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	reg.MustRegister(mutations, broadcasts, storageFailures, checkout)
	return &Storefront{
		mutations:       mutations,
		broadcasts:      broadcasts,
		storageFailures: storageFailures,
		checkout:        checkout,
	}
}

func (s *Storefront) IncMutation(op string) {
	if s == nil || s.mutations == nil {
		return
	}
	s.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

func (s *Storefront) IncBroadcast(source string) {
	if s == nil || s.broadcasts == nil {
		return
	}
	s.broadcasts.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncStorageFailure satisfies storage.FailureRecorder.
func (s *Storefront) IncStorageFailure(op string) {
	if s == nil || s.storageFailures == nil {
		return
	}
	s.storageFailures.WithLabelValues(normalizeLabel(op)).Inc()
}

func (s *Storefront) ObserveCheckout(outcome string, duration time.Duration) {
	if s == nil || s.checkout == nil {
		return
	}
	s.checkout.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
