package caps

import (
	"time"

	"go.uber.org/zap"
)

// Chain is the result of resolving a (context type, capability, key) triple:
// the aggregates visited, outermost first, and the terminal provider. Two
// resolutions of the same triple against the same wiring always produce the
// same chain.
//
// The fields are exported for introspection and tooling; treat them as
// read-only.
type Chain struct {
	Capability *Capability
	Key        AuxKey

	// Aggregates lists the visited aggregates in walk order. The first entry
	// is the context's own aggregate, the last the one holding the terminal
	// edge.
	Aggregates []*Aggregate

	// Provider is the terminal provider.
	Provider *Provider
}

// Path returns the chain as names, aggregates then provider, for logs and
// assertions.
func (ch *Chain) Path() []string {
	if ch == nil {
		return nil
	}
	out := make([]string, 0, len(ch.Aggregates)+1)
	for _, a := range ch.Aggregates {
		out = append(out, a.name)
	}
	if ch.Provider != nil {
		out = append(out, ch.Provider.name)
	}
	return out
}

// Resolve walks delegation edges from the context type's aggregate until a
// terminal provider edge ends the chain.
//
// An aggregate without an edge for (capability, key) fails the walk with an
// UnresolvedError naming that aggregate; a revisited aggregate fails it with
// a CycleError carrying the path. No constraint set is evaluated here; a
// resolved chain may still fail Check.
func (r *Registry) Resolve(ct *ContextType, cap *Capability, key AuxKey) (*Chain, error) {
	if r == nil {
		return nil, ErrNilRegistry
	}
	if ct == nil {
		return nil, ErrNilContextType
	}
	if cap == nil {
		return nil, ErrNilCapability
	}
	if err := checkKey(cap, key, !key.IsZero()); err != nil {
		return nil, err
	}

	var start time.Time
	if r.metrics != nil {
		start = time.Now()
	}

	ek := edgeKey{cap: cap, key: key}
	visited := make(map[*Aggregate]bool)
	var aggs []*Aggregate

	a := ct.agg
	for {
		if visited[a] {
			path := make([]string, 0, len(aggs)+1)
			for _, seen := range aggs {
				path = append(path, seen.name)
			}
			path = append(path, a.name)
			r.metrics.resolution(outcomeCycle)
			return nil, CycleError{Kind: "delegation", Capability: cap.name, Key: key, Path: path}
		}
		visited[a] = true
		aggs = append(aggs, a)

		e, ok := a.edges[ek]
		if !ok {
			r.metrics.resolution(outcomeUnresolved)
			return nil, UnresolvedError{Context: ct.name, Capability: cap.name, Key: key, Aggregate: a.name}
		}
		if e.provider != nil {
			ch := &Chain{Capability: cap, Key: key, Aggregates: aggs, Provider: e.provider}
			r.metrics.resolution(outcomeResolved)
			if r.metrics != nil {
				r.metrics.observeResolve(time.Since(start).Seconds())
			}
			r.log.Debug("capability resolved",
				zap.String("context", ct.name),
				zap.String("capability", cap.name),
				zap.Stringer("key", key),
				zap.Strings("chain", ch.Path()),
			)
			return ch, nil
		}
		a = e.next
	}
}

// Check evaluates a resolved chain's constraint sets against the context
// type, bottom-up: the terminal provider's set first, then each aggregate's
// from innermost to outermost. The first failure stops evaluation and is
// returned as an UnsatisfiedError carrying the constraint's own error as
// Cause.
//
// Check never invokes the provider; it only inspects the context type.
func (r *Registry) Check(ct *ContextType, ch *Chain) error {
	if r == nil {
		return ErrNilRegistry
	}
	if ct == nil {
		return ErrNilContextType
	}
	if ch == nil || ch.Provider == nil || ch.Capability == nil {
		return ErrNilCapability
	}
	return r.checkChain(ct, ch, newCheckGuard())
}

// checkGuard tracks capability checks in progress so that Can constraints
// looping back on themselves surface as a CycleError instead of recursing
// forever.
type checkGuard struct {
	active map[checkID]bool
	path   []string
}

type checkID struct {
	ct  *ContextType
	cap *Capability
	key AuxKey
}

func newCheckGuard() *checkGuard {
	return &checkGuard{active: make(map[checkID]bool)}
}

func (r *Registry) checkChain(ct *ContextType, ch *Chain, g *checkGuard) error {
	id := checkID{ct: ct, cap: ch.Capability, key: ch.Key}
	if g.active[id] {
		path := make([]string, 0, len(g.path)+1)
		path = append(path, g.path...)
		path = append(path, ch.Capability.name)
		return CycleError{Kind: "constraint", Capability: ch.Capability.name, Key: ch.Key, Path: path}
	}
	g.active[id] = true
	g.path = append(g.path, ch.Capability.name)
	defer func() {
		delete(g.active, id)
		g.path = g.path[:len(g.path)-1]
	}()

	for _, c := range ch.Provider.requires {
		if err := evalConstraint(c, ct, g); err != nil {
			return r.unsatisfied(ct, ch, ch.Provider.name, c, err)
		}
	}
	for i := len(ch.Aggregates) - 1; i >= 0; i-- {
		a := ch.Aggregates[i]
		for _, c := range a.requires {
			if err := evalConstraint(c, ct, g); err != nil {
				return r.unsatisfied(ct, ch, a.name, c, err)
			}
		}
	}
	return nil
}

func (r *Registry) unsatisfied(ct *ContextType, ch *Chain, stage string, c Constraint, cause error) error {
	r.metrics.constraintFailure(ch.Capability.name)
	return UnsatisfiedError{
		Context:    ct.name,
		Capability: ch.Capability.name,
		Key:        ch.Key,
		Stage:      stage,
		Constraint: c.Describe(),
		Cause:      cause,
	}
}
