package caps

import (
	"reflect"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Registry owns the declaration tables: capabilities, providers, aggregates
// and context types, each keyed by a unique name (context types additionally
// by their Go type, for Bind).
//
// Lifecycle: a registry is populated from a single goroutine during
// composition, then used concurrently. Declarations never mutate existing
// entries, reads after the registration phase are lock-free, and the only
// state that changes during use is the per-context-type resolution cache,
// which is safe for concurrent access.
type Registry struct {
	log     *zap.Logger
	metrics *metricsSet

	capabilities   map[string]*Capability
	providers      map[string]*Provider
	aggregates     map[string]*Aggregate
	contexts       map[string]*ContextType
	contextsByType map[reflect.Type]*ContextType
}

// Option configures a Registry at construction.
type Option func(*Registry)

// WithLogger sets the structured logger. Declarations and wiring log at
// Debug, lazily surfaced failures at Warn. The default is a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics registers the registry's instruments with reg and enables
// them. Without this option no metric is created or updated.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(r *Registry) {
		if reg != nil {
			r.metrics = newMetricsSet(reg)
		}
	}
}

// New constructs an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		log:            zap.NewNop(),
		capabilities:   make(map[string]*Capability),
		providers:      make(map[string]*Provider),
		aggregates:     make(map[string]*Aggregate),
		contexts:       make(map[string]*ContextType),
		contextsByType: make(map[reflect.Type]*ContextType),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Capability returns the declared capability for a name.
func (r *Registry) Capability(name string) (*Capability, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.capabilities[name]
	return c, ok
}

// Provider returns the registered provider for a name.
func (r *Registry) Provider(name string) (*Provider, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.providers[name]
	return p, ok
}

// Aggregate returns the declared aggregate for a name.
func (r *Registry) Aggregate(name string) (*Aggregate, bool) {
	if r == nil {
		return nil, false
	}
	a, ok := r.aggregates[name]
	return a, ok
}
