package caps

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrUnavailable is the common class for every failure that makes a
	// capability unusable on a context at the point of use. Both
	// UnresolvedError (no wiring) and UnsatisfiedError (wiring exists, a
	// constraint failed) match it via errors.Is, so callers that only care
	// about "can I use this" need a single check.
	ErrUnavailable = errors.New("caps: capability unavailable")

	// ErrNilRegistry is returned when a declaration or lookup is attempted
	// against a nil registry.
	ErrNilRegistry = errors.New("caps: nil registry")

	// ErrNilCapability is returned when a wiring or use-site call receives a
	// nil capability.
	ErrNilCapability = errors.New("caps: nil capability")

	// ErrNilProvider is returned when a wiring call receives a nil provider.
	ErrNilProvider = errors.New("caps: nil provider")

	// ErrNilAggregate is returned when a delegation call receives a nil
	// target aggregate, or a context type is declared without one.
	ErrNilAggregate = errors.New("caps: nil aggregate")

	// ErrNilImpl is returned by Provide when the implementation value is nil.
	ErrNilImpl = errors.New("caps: nil provider implementation")

	// ErrNilValue is returned by Bind when the context value is nil.
	ErrNilValue = errors.New("caps: nil context value")

	// ErrNilContextType is returned when Resolve, Check or Verify receive a
	// nil context type.
	ErrNilContextType = errors.New("caps: nil context type")

	// ErrInvalidContext is returned when a zero Context handle is used.
	// Contexts are obtained from (*Registry).Bind; the zero value is not
	// bound to any declared context type.
	ErrInvalidContext = errors.New("caps: invalid context handle")
)

// ConflictError is returned when a declaration reuses a name that is already
// taken in the same table. Declarations never shadow or override; the second
// declaration is rejected.
type ConflictError struct {
	// Kind names the declaration table ("capability", "provider",
	// "aggregate", "context", "field", "associated type").
	Kind string

	// Name is the duplicated declaration name.
	Name string
}

// Error implements the error interface.
func (e ConflictError) Error() string {
	// Example: caps: duplicate capability declaration "counter.bump"
	return "caps: duplicate " + e.Kind + " declaration " + strconv.Quote(e.Name)
}

// WireConflictError is returned when an aggregate already has an edge for the
// (capability, key) pair. There is no precedence between edges; the first
// wiring wins only in the sense that the second one is an error.
type WireConflictError struct {
	Aggregate  string
	Capability string

	// Key is the dispatch key of the rejected edge. The zero key means the
	// capability is unkeyed.
	Key AuxKey
}

// Error implements the error interface.
func (e WireConflictError) Error() string {
	// Example: caps: aggregate "app.core" already wires capability "error.raise" for key type:main.CustomError
	s := "caps: aggregate " + strconv.Quote(e.Aggregate) +
		" already wires capability " + strconv.Quote(e.Capability)
	if !e.Key.IsZero() {
		s += " for key " + e.Key.String()
	}
	return s
}

// UnknownNameError is returned when a lookup by name finds nothing in the
// corresponding declaration table.
type UnknownNameError struct {
	// Kind names the declaration table ("capability", "provider", "aggregate").
	Kind string

	// Name is the name that was looked up.
	Name string
}

// Error implements the error interface.
func (e UnknownNameError) Error() string {
	// Example: caps: unknown provider "increment"
	return "caps: unknown " + e.Kind + " " + strconv.Quote(e.Name)
}

// LinkError is returned by Declare and DeclareKeyed when the consumer
// interface and the provider contract do not correspond method for method.
type LinkError struct {
	// Capability is the name the declaration attempted to register.
	Capability string

	// Detail describes the first mismatch found.
	Detail string
}

// Error implements the error interface.
func (e LinkError) Error() string {
	// Example: caps: capability "counter.bump" link failure: contract is missing method Bump
	return "caps: capability " + strconv.Quote(e.Capability) + " link failure: " + e.Detail
}

// ContextDeclError is returned by DeclareContext when the type argument is
// not usable as a context struct.
type ContextDeclError struct {
	// Context is the name the declaration attempted to register.
	Context string

	// Detail describes what made the type unusable.
	Detail string
}

// Error implements the error interface.
func (e ContextDeclError) Error() string {
	// Example: caps: context "app" declaration failure: context type int is not a struct
	return "caps: context " + strconv.Quote(e.Context) + " declaration failure: " + e.Detail
}

// ContractError is returned when a provider implementation does not satisfy a
// capability's provider contract. It surfaces at wiring time (the
// implementation lacks the contract's method set) or at a use site (the
// requested contract type is not the one the capability was declared with).
type ContractError struct {
	Capability string
	Provider   string

	// Contract is the string form of the contract interface type.
	Contract string
}

// Error implements the error interface.
func (e ContractError) Error() string {
	// Example: caps: provider "increment" does not satisfy contract main.BumpProvider for capability "counter.bump"
	return "caps: provider " + strconv.Quote(e.Provider) +
		" does not satisfy contract " + e.Contract +
		" for capability " + strconv.Quote(e.Capability)
}

// KeyMismatchError is returned when a keyed capability is wired or resolved
// without a dispatch key, or an unkeyed capability with one.
type KeyMismatchError struct {
	Capability string

	// Keyed reports whether the capability was declared keyed.
	Keyed bool
}

// Error implements the error interface.
func (e KeyMismatchError) Error() string {
	// Example: caps: capability "error.raise" requires a dispatch key
	if e.Keyed {
		return "caps: capability " + strconv.Quote(e.Capability) + " requires a dispatch key"
	}
	return "caps: capability " + strconv.Quote(e.Capability) + " takes no dispatch key"
}

// UnresolvedError is returned when resolution walks the delegation chain and
// reaches an aggregate with no edge for the (capability, key) pair. It wraps
// ErrUnavailable.
type UnresolvedError struct {
	Context    string
	Capability string
	Key        AuxKey

	// Aggregate is the chain position that had no edge.
	Aggregate string
}

// Error implements the error interface.
func (e UnresolvedError) Error() string {
	// Example: caps: no wiring for capability "clock.now" from context "app" at aggregate "app.core"
	s := "caps: no wiring for capability " + strconv.Quote(e.Capability)
	if !e.Key.IsZero() {
		s += " key " + e.Key.String()
	}
	return s + " from context " + strconv.Quote(e.Context) +
		" at aggregate " + strconv.Quote(e.Aggregate)
}

// Unwrap makes errors.Is(err, ErrUnavailable) hold.
func (e UnresolvedError) Unwrap() error { return ErrUnavailable }

// CycleError is returned when resolution re-enters an aggregate it has
// already visited, or when constraint evaluation re-enters a capability check
// that is still in progress (a Can constraint looping back on itself).
type CycleError struct {
	// Kind is "delegation" or "constraint".
	Kind string

	Capability string
	Key        AuxKey

	// Path lists the visited aggregates (delegation) or checked capabilities
	// (constraint) in order, ending with the repeated entry.
	Path []string
}

// Error implements the error interface.
func (e CycleError) Error() string {
	// Example: caps: delegation cycle for capability "clock.now": app.core -> base -> app.core
	s := "caps: " + e.Kind + " cycle for capability " + strconv.Quote(e.Capability)
	if !e.Key.IsZero() {
		s += " key " + e.Key.String()
	}
	return s + ": " + strings.Join(e.Path, " -> ")
}

// UnsatisfiedError is returned when a resolved chain fails its constraint
// evaluation for a context. Evaluation is bottom-up and stops at the first
// failing constraint; Cause is that constraint's own error, unchanged.
//
// It wraps both ErrUnavailable and Cause, so errors.Is sees the common
// unavailability class and errors.As reaches the underlying cause (for
// example MissingFieldError).
type UnsatisfiedError struct {
	Context    string
	Capability string
	Key        AuxKey

	// Stage is the chain position whose constraint failed: the terminal
	// provider's name or an aggregate's name.
	Stage string

	// Constraint is the failing constraint's description.
	Constraint string

	// Cause is the error the constraint evaluation produced.
	Cause error
}

// Error implements the error interface.
func (e UnsatisfiedError) Error() string {
	// Example: caps: capability "counter.bump" unsatisfied on context "app": increment requires field "count": ...
	s := "caps: capability " + strconv.Quote(e.Capability)
	if !e.Key.IsZero() {
		s += " key " + e.Key.String()
	}
	s += " unsatisfied on context " + strconv.Quote(e.Context) +
		": " + e.Stage + " requires " + e.Constraint
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

// Unwrap exposes ErrUnavailable and the failing constraint's cause.
func (e UnsatisfiedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUnavailable}
	}
	return []error{ErrUnavailable, e.Cause}
}

// MissingFieldError reports that a context type has no field under the
// requested name. It is both a field-access error and the cause carried by
// UnsatisfiedError when a HasField-style constraint fails.
type MissingFieldError struct {
	Context string
	Field   string
}

// Error implements the error interface.
func (e MissingFieldError) Error() string {
	// Example: caps: context "app" has no field "count"
	return "caps: context " + strconv.Quote(e.Context) + " has no field " + strconv.Quote(e.Field)
}

// FieldTypeError reports that a field exists but its declared type does not
// match what the access or constraint asked for.
type FieldTypeError struct {
	Context string
	Field   string

	// Want describes the requested type (or kind class, for kind constraints).
	Want string

	// Got is the declared field type.
	Got string
}

// Error implements the error interface.
func (e FieldTypeError) Error() string {
	// Example: caps: field "count" on context "app" has type string, want int
	return "caps: field " + strconv.Quote(e.Field) + " on context " + strconv.Quote(e.Context) +
		" has type " + e.Got + ", want " + e.Want
}

// MissingAssocError reports that a context type does not declare the
// requested associated type.
type MissingAssocError struct {
	Context string
	Assoc   string
}

// Error implements the error interface.
func (e MissingAssocError) Error() string {
	// Example: caps: context "app" has no associated type "Time"
	return "caps: context " + strconv.Quote(e.Context) + " has no associated type " + strconv.Quote(e.Assoc)
}

// AssocTypeError reports that an associated type is declared but bound to a
// different Go type than the one a constraint requires.
type AssocTypeError struct {
	Context string
	Assoc   string
	Want    string
	Got     string
}

// Error implements the error interface.
func (e AssocTypeError) Error() string {
	// Example: caps: associated type "Time" on context "app" is time.Time, want int64
	return "caps: associated type " + strconv.Quote(e.Assoc) + " on context " + strconv.Quote(e.Context) +
		" is " + e.Got + ", want " + e.Want
}

// ImplementsError reports that a context's Go type does not satisfy an
// interface an Implements constraint requires.
type ImplementsError struct {
	Context string

	// Interface is the string form of the required interface type.
	Interface string
}

// Error implements the error interface.
func (e ImplementsError) Error() string {
	// Example: caps: context "app" does not implement io.Writer
	return "caps: context " + strconv.Quote(e.Context) + " does not implement " + e.Interface
}

// ContextTypeError is returned by As when the bound value is not of the
// requested Go type.
type ContextTypeError struct {
	Want string
	Got  string
}

// Error implements the error interface.
func (e ContextTypeError) Error() string {
	// Example: caps: context value is *main.MockApp, want *main.Counter
	return "caps: context value is " + e.Got + ", want " + e.Want
}

// UnknownContextError is returned by Bind when no context type was declared
// for the value's Go type.
type UnknownContextError struct {
	// GoType is the string form of the value's type.
	GoType string
}

// Error implements the error interface.
func (e UnknownContextError) Error() string {
	// Example: caps: no declared context type for *main.Counter
	return "caps: no declared context type for " + e.GoType
}

// VersionError is returned when a wiring-time version constraint cannot be
// applied: the constraint does not parse, the provider declares no version,
// or the declared version does not satisfy the constraint. Provide returns
// it as well when a declared version string does not parse.
type VersionError struct {
	Provider string

	// Version is the provider's declared version, empty when absent.
	Version string

	// Constraint is the raw constraint expression, empty for declaration
	// parse failures.
	Constraint string

	// Detail says which of the three checks failed.
	Detail string
}

// Error implements the error interface.
func (e VersionError) Error() string {
	// Example: caps: provider "increment" version "0.9.0" does not satisfy ">=1.0.0 <2.0.0"
	s := "caps: provider " + strconv.Quote(e.Provider)
	if e.Version != "" {
		s += " version " + strconv.Quote(e.Version)
	}
	s += " " + e.Detail
	if e.Constraint != "" {
		s += " " + strconv.Quote(e.Constraint)
	}
	return s
}
