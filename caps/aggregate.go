package caps

import (
	"reflect"

	mmsemver "github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
)

// Aggregate is a named routing table: per (capability, key) it holds exactly
// one edge, pointing either at a terminal provider or at another aggregate to
// delegate to. Contexts attach to one aggregate; resolution walks edges from
// there.
//
// Aggregates may carry their own constraint sets via Require; like provider
// constraints they are evaluated lazily, per chain, innermost aggregate
// first.
type Aggregate struct {
	reg      *Registry
	name     string
	requires []Constraint
	edges    map[edgeKey]*edge
}

type edgeKey struct {
	cap *Capability
	key AuxKey
}

// edge is either terminal (provider set) or delegating (next set), never both.
type edge struct {
	provider *Provider
	next     *Aggregate
}

// Name returns the aggregate's declared name.
func (a *Aggregate) Name() string { return a.name }

// Require appends constraints to the aggregate's constraint set and returns
// the aggregate for chaining. Every chain passing through this aggregate
// evaluates them.
func (a *Aggregate) Require(cs ...Constraint) *Aggregate {
	if a == nil {
		return nil
	}
	for _, c := range cs {
		if c == nil {
			continue
		}
		a.requires = append(a.requires, c)
	}
	return a
}

// DeclareAggregate registers an empty aggregate under a unique name.
func (r *Registry) DeclareAggregate(name string) (*Aggregate, error) {
	if r == nil {
		return nil, ErrNilRegistry
	}
	if _, exists := r.aggregates[name]; exists {
		return nil, ConflictError{Kind: "aggregate", Name: name}
	}
	a := &Aggregate{reg: r, name: name, edges: make(map[edgeKey]*edge)}
	r.aggregates[name] = a
	r.log.Debug("aggregate declared", zap.String("aggregate", name))
	return a, nil
}

// MustDeclareAggregate is DeclareAggregate or panic.
func (r *Registry) MustDeclareAggregate(name string) *Aggregate {
	a, err := r.DeclareAggregate(name)
	if err != nil {
		panic(err)
	}
	return a
}

// WireOption configures a single wiring edge.
type WireOption func(*wireConfig)

type wireConfig struct {
	constraint string
}

// WithConstraint attaches a semantic version constraint to a provider edge.
// It is validated immediately, against the provider's declared version:
// an unparsable expression, an undeclared version, or an unsatisfied range
// each fail the Wire call with a VersionError.
//
// This is a wiring-validity check and deliberately not part of the lazy
// context constraint machinery.
func WithConstraint(expr string) WireOption {
	return func(cfg *wireConfig) { cfg.constraint = expr }
}

// Wire adds a terminal edge for an unkeyed capability.
//
// Declaration-time validation covers the edge itself: the capability must be
// unkeyed, the (capability) slot free, and the provider's implementation must
// satisfy the capability's contract. The provider's constraint set is not
// looked at; that happens at first use on a concrete context.
func (a *Aggregate) Wire(cap *Capability, p *Provider, opts ...WireOption) error {
	return a.wire(cap, NoKey, p, false, opts)
}

// WireKeyed adds a terminal edge for a keyed capability under key.
func (a *Aggregate) WireKeyed(cap *Capability, key AuxKey, p *Provider, opts ...WireOption) error {
	return a.wire(cap, key, p, true, opts)
}

func (a *Aggregate) wire(cap *Capability, key AuxKey, p *Provider, keyed bool, opts []WireOption) error {
	if a == nil {
		return ErrNilAggregate
	}
	if cap == nil {
		return ErrNilCapability
	}
	if p == nil {
		return ErrNilProvider
	}
	if err := checkKey(cap, key, keyed); err != nil {
		return err
	}
	if !reflect.TypeOf(p.impl).Implements(cap.contract) {
		return ContractError{Capability: cap.name, Provider: p.name, Contract: cap.contract.String()}
	}

	cfg := &wireConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.constraint != "" {
		if err := checkVersion(p, cfg.constraint); err != nil {
			return err
		}
	}

	ek := edgeKey{cap: cap, key: key}
	if _, exists := a.edges[ek]; exists {
		return WireConflictError{Aggregate: a.name, Capability: cap.name, Key: key}
	}
	a.edges[ek] = &edge{provider: p}
	a.reg.log.Debug("capability wired",
		zap.String("aggregate", a.name),
		zap.String("capability", cap.name),
		zap.Stringer("key", key),
		zap.String("provider", p.name),
	)
	return nil
}

// Delegate adds a delegation edge for an unkeyed capability: resolution
// continues at the target aggregate. Chains may be any depth; a chain that
// revisits an aggregate fails at resolve time with a CycleError, not here,
// since the loop may involve edges that do not exist yet.
func (a *Aggregate) Delegate(cap *Capability, to *Aggregate) error {
	return a.delegate(cap, NoKey, to, false)
}

// DelegateKeyed adds a delegation edge for a keyed capability under key.
func (a *Aggregate) DelegateKeyed(cap *Capability, key AuxKey, to *Aggregate) error {
	return a.delegate(cap, key, to, true)
}

func (a *Aggregate) delegate(cap *Capability, key AuxKey, to *Aggregate, keyed bool) error {
	if a == nil {
		return ErrNilAggregate
	}
	if cap == nil {
		return ErrNilCapability
	}
	if to == nil {
		return ErrNilAggregate
	}
	if err := checkKey(cap, key, keyed); err != nil {
		return err
	}

	ek := edgeKey{cap: cap, key: key}
	if _, exists := a.edges[ek]; exists {
		return WireConflictError{Aggregate: a.name, Capability: cap.name, Key: key}
	}
	a.edges[ek] = &edge{next: to}
	a.reg.log.Debug("capability delegated",
		zap.String("aggregate", a.name),
		zap.String("capability", cap.name),
		zap.Stringer("key", key),
		zap.String("to", to.name),
	)
	return nil
}

// checkKey enforces the keyed/unkeyed split at declaration sites: keyed
// capabilities always take a non-zero key, unkeyed capabilities never do.
func checkKey(cap *Capability, key AuxKey, keyed bool) error {
	if cap.keyed {
		if !keyed || key.IsZero() {
			return KeyMismatchError{Capability: cap.name, Keyed: true}
		}
		return nil
	}
	if keyed || !key.IsZero() {
		return KeyMismatchError{Capability: cap.name, Keyed: false}
	}
	return nil
}

func checkVersion(p *Provider, expr string) error {
	c, err := mmsemver.NewConstraint(expr)
	if err != nil {
		return VersionError{Provider: p.name, Version: p.rawVer, Constraint: expr, Detail: "wired with unparsable constraint"}
	}
	if p.version == nil {
		return VersionError{Provider: p.name, Constraint: expr, Detail: "declares no version for constraint"}
	}
	if !c.Check(p.version) {
		return VersionError{Provider: p.name, Version: p.rawVer, Constraint: expr, Detail: "does not satisfy"}
	}
	return nil
}
