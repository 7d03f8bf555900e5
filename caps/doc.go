// Package caps wires capabilities to providers through named aggregates,
// with constraint checking deferred to the point of use.
//
// The model has four kinds of declarations:
//
//   - A capability is a named behavior: a consumer interface (what call
//     sites see) linked to a provider contract (the same methods with an
//     explicit Context parameter).
//   - A provider is an implementation value registered under a name, with an
//     optional semantic version and a constraint set describing what it
//     needs from a context.
//   - An aggregate is a routing table holding exactly one edge per
//     (capability, key): either a terminal provider or a delegation to
//     another aggregate.
//   - A context type binds a Go struct to an aggregate and declares its
//     field table and associated types once.
//
// Wiring is explicit and strict: duplicate names and duplicate edges are
// declaration-time errors, never precedence rules, and a provider must
// satisfy a capability's contract to be wired to it. What wiring does NOT
// check is provider constraint sets. Those are evaluated lazily, on the
// first Use of a capability for a concrete context, walking the resolved
// chain bottom-up and reporting the first failing constraint. An
// over-constrained provider is therefore free to exist in the registry as
// long as no context that fails its constraints tries to use it.
//
// A typical composition:
//
//	r := caps.New(caps.WithLogger(logger))
//
//	bump := caps.MustDeclare[Counter, CounterProvider](r, "counter.bump")
//	inc := r.MustProvide("increment", incrementProvider{}).
//		Require(caps.HasField("count"), caps.FieldOfKind("count", caps.KindNumeric))
//
//	core := r.MustDeclareAggregate("app.core")
//	must(core.Wire(bump, inc))
//
//	ct := caps.MustDeclareContext[App](r, "app", core)
//	c := r.MustBind(&App{Count: 5})
//
//	p, err := caps.Use[CounterProvider](c, bump)
//	// p.Bump(c) == 6
//
// Keyed capabilities (DeclareKeyed, WireKeyed, UseKeyed) add an AuxKey to
// the edge identity, so one capability can dispatch to different providers
// per type or name token. A provider may itself re-enter UseKeyed under a
// different key, which is how forwarding dispatch (convert, then re-raise)
// is built.
//
// Resolution is deterministic and cached: the first successful Use per
// (context type, capability, key) stores an immutable entry, later calls are
// a map load plus an interface assertion. Failures are never cached.
// Resolve and Check are exported separately for tooling, and Verify runs
// them across many capabilities at once, aggregating every failure instead
// of stopping at the first.
//
// Registration is meant to happen from one goroutine before use; after that
// the registry is read-only and safe to share. There is no global registry.
package caps
