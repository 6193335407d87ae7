package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for eligibility checks.
type Metrics struct {
	// Checks served, by whether the result came from cache
	Checks *prometheus.CounterVec

	// Number of schemes matched per check
	MatchedSchemes prometheus.Histogram

	// Pure evaluation latency (cache misses only)
	EvaluateLatency prometheus.Histogram

	// Schemes rejected per failed criterion
	CriterionRejections *prometheus.CounterVec

	// Cache lookups by result
	CacheLookups *prometheus.CounterVec

	// Check events dropped because the publisher queue was full
	DroppedEvents prometheus.Counter
}

// New registers all eligibility metrics with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Checks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "schemefinder_eligibility_checks_total",
			Help: "Total eligibility checks by result source",
		}, []string{"source"}), // source: "evaluated", "cache"

		MatchedSchemes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "schemefinder_eligibility_matched_schemes",
			Help:    "Number of schemes matched per eligibility check",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),

		EvaluateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "schemefinder_eligibility_evaluate_duration_seconds",
			Help:    "Duration of evaluating a profile against the catalog",
			Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
		}),

		CriterionRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "schemefinder_eligibility_criterion_rejections_total",
			Help: "Schemes rejected, by failed criterion",
		}, []string{"criterion"}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "schemefinder_eligibility_cache_lookups_total",
			Help: "Eligibility result cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss", "skipped", "error"

		DroppedEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "schemefinder_events_dropped_total",
			Help: "Check events dropped because the publish queue was full",
		}),
	}
}

// IncrementCheck records a served check.
func (m *Metrics) IncrementCheck(source string, matched int) {
	if m != nil {
		m.Checks.WithLabelValues(source).Inc()
		m.MatchedSchemes.Observe(float64(matched))
	}
}

// ObserveEvaluateLatency records how long a full evaluation took.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

// IncrementRejection records a scheme failing on criterion.
func (m *Metrics) IncrementRejection(criterion string) {
	if m != nil {
		m.CriterionRejections.WithLabelValues(criterion).Inc()
	}
}

// IncrementCacheLookup records the outcome of one cache lookup.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// IncrementDroppedEvent records a dropped check event.
func (m *Metrics) IncrementDroppedEvent() {
	if m != nil {
		m.DroppedEvents.Inc()
	}
}
