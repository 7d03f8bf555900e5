package manifest

import (
	"errors"
	"fmt"

	"github.com/capwire/capwire/caps"
)

// ErrNilDocument is returned by Apply and Lint when the document is nil.
var ErrNilDocument = errors.New("manifest: nil document")

// ApplyOption configures a single Apply call.
type ApplyOption func(*applier)

// WithTypeKeys registers aliases for type keys. A document edge with
// `typeKey: codedError` applies as the key mapped under "codedError".
func WithTypeKeys(keys map[string]caps.AuxKey) ApplyOption {
	return func(ap *applier) {
		for alias, k := range keys {
			ap.typeKeys[alias] = k
		}
	}
}

type applier struct {
	reg      *caps.Registry
	typeKeys map[string]caps.AuxKey
	aggs     map[string]*caps.Aggregate
}

// Apply declares the document's aggregates on the registry, then applies
// every wire and delegate in document order. Capabilities, providers, and
// external aggregates must already be registered under the names the
// document uses.
//
// Apply stops at the first failure. Everything already declared stays on the
// registry, exactly as if the same registration calls had been written out
// by hand and the failing one had been reached.
func Apply(r *caps.Registry, doc *Document, opts ...ApplyOption) error {
	if r == nil {
		return caps.ErrNilRegistry
	}
	if doc == nil {
		return ErrNilDocument
	}

	ap := &applier{
		reg:      r,
		typeKeys: make(map[string]caps.AuxKey),
		aggs:     make(map[string]*caps.Aggregate),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(ap)
		}
	}

	for _, name := range doc.External.Aggregates {
		a, ok := r.Aggregate(name)
		if !ok {
			return fmt.Errorf("manifest: external aggregate: %w", caps.UnknownNameError{Kind: "aggregate", Name: name})
		}
		ap.aggs[name] = a
	}

	// All aggregates first, so a delegate may target one declared later in
	// the document.
	for _, ad := range doc.Aggregates {
		a, err := r.DeclareAggregate(ad.Name)
		if err != nil {
			return fmt.Errorf("manifest: aggregate %q: %w", ad.Name, err)
		}
		ap.aggs[ad.Name] = a
	}

	for _, ad := range doc.Aggregates {
		if err := ap.applyEdges(ad); err != nil {
			return err
		}
	}
	return nil
}

func (ap *applier) applyEdges(ad AggregateDecl) error {
	a := ap.aggs[ad.Name]

	for _, w := range ad.Wires {
		cap, key, err := ap.edgeTarget(w.Capability, w.Key, w.TypeKey)
		if err != nil {
			return fmt.Errorf("manifest: aggregate %q: %w", ad.Name, err)
		}
		p, ok := ap.reg.Provider(w.Provider)
		if !ok {
			return fmt.Errorf("manifest: aggregate %q: %w", ad.Name, caps.UnknownNameError{Kind: "provider", Name: w.Provider})
		}
		var opts []caps.WireOption
		if w.Constraint != "" {
			opts = append(opts, caps.WithConstraint(w.Constraint))
		}
		if key.IsZero() {
			err = a.Wire(cap, p, opts...)
		} else {
			err = a.WireKeyed(cap, key, p, opts...)
		}
		if err != nil {
			return fmt.Errorf("manifest: aggregate %q: wire %q: %w", ad.Name, w.Capability, err)
		}
	}

	for _, d := range ad.Delegates {
		cap, key, err := ap.edgeTarget(d.Capability, d.Key, d.TypeKey)
		if err != nil {
			return fmt.Errorf("manifest: aggregate %q: %w", ad.Name, err)
		}
		next, ok := ap.aggs[d.To]
		if !ok {
			return fmt.Errorf("manifest: aggregate %q: delegate target %q is not in the document or its external list", ad.Name, d.To)
		}
		if key.IsZero() {
			err = a.Delegate(cap, next)
		} else {
			err = a.DelegateKeyed(cap, key, next)
		}
		if err != nil {
			return fmt.Errorf("manifest: aggregate %q: delegate %q: %w", ad.Name, d.Capability, err)
		}
	}
	return nil
}

func (ap *applier) edgeTarget(capName, key, typeKey string) (*caps.Capability, caps.AuxKey, error) {
	cap, ok := ap.reg.Capability(capName)
	if !ok {
		return nil, caps.NoKey, caps.UnknownNameError{Kind: "capability", Name: capName}
	}
	k, err := ap.edgeKey(key, typeKey)
	if err != nil {
		return nil, caps.NoKey, fmt.Errorf("capability %q: %w", capName, err)
	}
	return cap, k, nil
}

func (ap *applier) edgeKey(key, typeKey string) (caps.AuxKey, error) {
	switch {
	case key != "" && typeKey != "":
		return caps.NoKey, errors.New("key and typeKey are mutually exclusive")
	case key != "":
		return caps.NameKey(key), nil
	case typeKey != "":
		k, ok := ap.typeKeys[typeKey]
		if !ok {
			return caps.NoKey, fmt.Errorf("typeKey alias %q has no key registered via WithTypeKeys", typeKey)
		}
		return k, nil
	default:
		return caps.NoKey, nil
	}
}
