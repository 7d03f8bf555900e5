package caps

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeResolved   = "resolved"
	outcomeUnresolved = "unresolved"
	outcomeCycle      = "cycle"
)

// metricsSet holds the registry's instruments. It is created only when
// WithMetrics is given; every method is safe on a nil receiver so call sites
// never branch.
//
// Instruments are registered per Registry rather than in a package init so
// that independent registries (and their tests) do not fight over one
// collector namespace.
type metricsSet struct {
	resolutions        *prometheus.CounterVec
	cacheHits          prometheus.Counter
	constraintFailures *prometheus.CounterVec
	resolveDuration    prometheus.Histogram
}

func newMetricsSet(reg prometheus.Registerer) *metricsSet {
	m := &metricsSet{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capwire_resolutions_total",
				Help: "Number of resolution walks by outcome.",
			},
			[]string{"outcome"},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "capwire_cache_hits_total",
				Help: "Number of use-site lookups served from the resolution cache.",
			},
		),
		constraintFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "capwire_constraint_failures_total",
				Help: "Number of lazily surfaced constraint failures by capability.",
			},
			[]string{"capability"},
		),
		resolveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "capwire_resolve_duration_seconds",
				Help:    "Time taken to walk a delegation chain.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(
		m.resolutions,
		m.cacheHits,
		m.constraintFailures,
		m.resolveDuration,
	)
	return m
}

func (m *metricsSet) resolution(outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(outcome).Inc()
}

func (m *metricsSet) cacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *metricsSet) constraintFailure(capability string) {
	if m == nil {
		return
	}
	m.constraintFailures.WithLabelValues(capability).Inc()
}

func (m *metricsSet) observeResolve(seconds float64) {
	if m == nil {
		return
	}
	m.resolveDuration.Observe(seconds)
}
