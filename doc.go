// Package capwire is the root of a capability wiring toolkit for Go.
//
// The model: calling code names capabilities, never implementations. A
// registry records which provider serves each capability for each context
// type, delegation aggregates compose those decisions, and constraint sets
// describe what a provider needs from its context. Wiring is strict and
// explicit; constraint checking is lazy, deferred to the first use of each
// capability so that an unusable pairing costs nothing until someone
// actually reaches for it.
//
// There is no container magic and no struct-tag injection. Every
// registration is a call you can read, and every resolution is reproducible
// from those calls.
//
// See subpackages:
//   - caps: the registry, capabilities, providers, aggregates, context
//     types, constraints, and keyed dispatch
//   - manifest: YAML wiring documents applied onto a registry, plus an
//     offline linter
//   - cmd/capwire-vet: the linter as a command
//   - examples/*: runnable walkthroughs (counter, raise, manifest)
package capwire
