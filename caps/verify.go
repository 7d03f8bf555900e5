package caps

import (
	"sort"

	"go.uber.org/multierr"
)

// Verify checks that the context type can resolve and satisfy each given
// capability, without invoking anything and without touching the resolution
// cache. For keyed capabilities every key wired on the context's aggregate is
// checked.
//
// Unlike a use site, Verify does not stop at the first problem: all failures
// are aggregated into one error (multierr), which makes it the natural thing
// to call at the end of a composition root, where "list everything still
// broken" beats "fail on the first".
//
// A nil return means every listed capability is usable on this context.
func (r *Registry) Verify(ct *ContextType, capabilities ...*Capability) error {
	if r == nil {
		return ErrNilRegistry
	}
	if ct == nil {
		return ErrNilContextType
	}

	var err error
	for _, cap := range capabilities {
		if cap == nil {
			err = multierr.Append(err, ErrNilCapability)
			continue
		}
		err = multierr.Append(err, r.verifyCapability(ct, cap))
	}
	return err
}

// VerifyAll is Verify over every capability with an edge on the context
// type's aggregate, in name order.
func (r *Registry) VerifyAll(ct *ContextType) error {
	if r == nil {
		return ErrNilRegistry
	}
	if ct == nil {
		return ErrNilContextType
	}

	seen := make(map[*Capability]bool)
	var capabilities []*Capability
	for ek := range ct.agg.edges {
		if !seen[ek.cap] {
			seen[ek.cap] = true
			capabilities = append(capabilities, ek.cap)
		}
	}
	sort.Slice(capabilities, func(i, j int) bool {
		return capabilities[i].name < capabilities[j].name
	})
	return r.Verify(ct, capabilities...)
}

func (r *Registry) verifyCapability(ct *ContextType, cap *Capability) error {
	keys := []AuxKey{NoKey}
	if cap.keyed {
		keys = keys[:0]
		for ek := range ct.agg.edges {
			if ek.cap == cap {
				keys = append(keys, ek.key)
			}
		}
		if len(keys) == 0 {
			return UnresolvedError{Context: ct.name, Capability: cap.name, Aggregate: ct.agg.name}
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	}

	var err error
	for _, key := range keys {
		ch, rerr := r.Resolve(ct, cap, key)
		if rerr != nil {
			err = multierr.Append(err, rerr)
			continue
		}
		err = multierr.Append(err, r.Check(ct, ch))
	}
	return err
}
