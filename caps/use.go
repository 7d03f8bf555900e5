package caps

import "go.uber.org/zap"

// resolution is an immutable cache entry: a checked chain plus the terminal
// implementation it ended at.
type resolution struct {
	chain *Chain
	impl  any
}

// Use resolves an unkeyed capability for the context and returns the
// terminal provider typed as the contract P.
//
// The first call per (context type, capability) walks the delegation chain
// and evaluates its constraint sets bottom-up; this is the point where an
// over-constrained provider finally fails, as an UnsatisfiedError carrying
// the first failing constraint. Later calls hit an immutable cache and cost
// a map load plus an interface assertion.
//
// Failures are never cached. A capability that was unavailable because the
// wiring was still incomplete resolves normally once the missing edge is
// declared.
//
// The returned value is the registered implementation itself; invoking it is
// plain interface dispatch, with the context passed explicitly:
//
//	bump, err := caps.Use[BumpProvider](c, bumpCap)
//	if err != nil { ... }
//	n := bump.Bump(c)
func Use[P any](c Context, cap *Capability) (P, error) {
	return UseKeyed[P](c, cap, NoKey)
}

// UseKeyed is Use for keyed capabilities: the key selects among the edges
// wired for the capability, independently per key.
func UseKeyed[P any](c Context, cap *Capability, key AuxKey) (P, error) {
	var zero P
	if !c.Valid() {
		return zero, ErrInvalidContext
	}
	if cap == nil {
		return zero, ErrNilCapability
	}

	ct := c.ct
	ek := edgeKey{cap: cap, key: key}
	if v, ok := ct.cache.Load(ek); ok {
		ct.reg.metrics.cacheHit()
		return assertContract[P](cap, v.(*resolution))
	}

	ch, err := ct.reg.Resolve(ct, cap, key)
	if err != nil {
		ct.reg.log.Warn("capability unavailable",
			zap.String("context", ct.name),
			zap.String("capability", cap.name),
			zap.Stringer("key", key),
			zap.Error(err),
		)
		return zero, err
	}
	if err := ct.reg.Check(ct, ch); err != nil {
		ct.reg.log.Warn("capability unsatisfied",
			zap.String("context", ct.name),
			zap.String("capability", cap.name),
			zap.Stringer("key", key),
			zap.Error(err),
		)
		return zero, err
	}

	res := &resolution{chain: ch, impl: ch.Provider.impl}
	// Two goroutines racing the first use both resolve; the entries are
	// equivalent, so whichever lands first wins.
	if prev, loaded := ct.cache.LoadOrStore(ek, res); loaded {
		res = prev.(*resolution)
	}
	return assertContract[P](cap, res)
}

func assertContract[P any](cap *Capability, res *resolution) (P, error) {
	p, ok := res.impl.(P)
	if !ok {
		var zero P
		return zero, ContractError{
			Capability: cap.name,
			Provider:   res.chain.Provider.name,
			Contract:   TypeFor[P]().String(),
		}
	}
	return p, nil
}

// MustUse is Use or panic.
func MustUse[P any](c Context, cap *Capability) P {
	p, err := Use[P](c, cap)
	if err != nil {
		panic(err)
	}
	return p
}

// MustUseKeyed is UseKeyed or panic.
func MustUseKeyed[P any](c Context, cap *Capability, key AuxKey) P {
	p, err := UseKeyed[P](c, cap, key)
	if err != nil {
		panic(err)
	}
	return p
}
