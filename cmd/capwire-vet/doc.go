// Command capwire-vet — offline checks for wiring manifests
//
// capwire-vet parses and lints manifest documents without building a
// registry. It catches what a document can get wrong on its own:
//
//   - fields the schema does not define (strict decode)
//   - empty or duplicated aggregate names
//   - duplicated (capability, key) edges within an aggregate
//   - edges carrying both key and typeKey
//   - version constraints that do not parse as semver ranges
//   - delegate targets missing from the document and its external list
//
// What it cannot catch
//
// Names are resolved against a live registry at Apply time, so capwire-vet
// does not know whether "counter.bump" is a declared capability or whether
// the provider under "increment" satisfies its contract. A clean vet run
// means the document is well formed, not that it will apply.
//
// Usage
//
//	capwire-vet [-q] <wiring.yaml>...
//
// Every finding is printed as "<file>: <finding>". Clean files are reported
// as "<file>: ok" unless -q is set.
//
// Exit codes
//
//   - 0: every file parsed and linted clean
//   - 1: at least one file failed to parse or had findings
//   - 2: usage error
package main
