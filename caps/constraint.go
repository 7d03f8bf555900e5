package caps

import (
	"reflect"
	"strconv"
)

// Constraint is one requirement in a provider's or aggregate's constraint
// set. Constraints are declared eagerly but evaluated lazily: wiring never
// looks at them, the first use of a capability on a concrete context does.
//
// Evaluate returns nil when the context type satisfies the constraint and a
// typed cause (MissingFieldError, FieldTypeError, ...) when it does not. The
// cause is carried unchanged inside the UnsatisfiedError a use site sees.
type Constraint interface {
	// Describe returns a short rendering for error messages and logs.
	Describe() string

	// Evaluate checks the constraint against a context type.
	Evaluate(ct *ContextType) error
}

// guardedConstraint is implemented by constraints whose evaluation recurses
// into further capability checks and therefore needs cycle tracking.
type guardedConstraint interface {
	evaluateIn(ct *ContextType, g *checkGuard) error
}

func evalConstraint(c Constraint, ct *ContextType, g *checkGuard) error {
	if gc, ok := c.(guardedConstraint); ok {
		return gc.evaluateIn(ct, g)
	}
	return c.Evaluate(ct)
}

// FieldKind is a coarse classification of field types for FieldOfKind.
type FieldKind uint8

const (
	// KindNumeric matches all integer, unsigned integer and float kinds.
	KindNumeric FieldKind = iota + 1

	// KindString matches string fields.
	KindString

	// KindBool matches bool fields.
	KindBool
)

// String returns the class name used in constraint descriptions.
func (k FieldKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

func (k FieldKind) matches(t reflect.Type) bool {
	switch k {
	case KindNumeric:
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return true
		}
		return false
	case KindString:
		return t.Kind() == reflect.String
	case KindBool:
		return t.Kind() == reflect.Bool
	default:
		return false
	}
}

// HasField requires the context type to declare a field under the given name.
func HasField(name string) Constraint { return hasField{name: name} }

type hasField struct{ name string }

func (c hasField) Describe() string { return "field " + strconv.Quote(c.name) }

func (c hasField) Evaluate(ct *ContextType) error {
	if _, ok := ct.field(c.name); !ok {
		return MissingFieldError{Context: ct.name, Field: c.name}
	}
	return nil
}

// FieldOfKind requires a field to exist and its type to fall into a kind
// class. The usual pairing is HasField for presence plus FieldOfKind for
// shape; FieldOfKind alone also reports absence.
func FieldOfKind(name string, kind FieldKind) Constraint {
	return fieldOfKind{name: name, kind: kind}
}

type fieldOfKind struct {
	name string
	kind FieldKind
}

func (c fieldOfKind) Describe() string {
	return "field " + strconv.Quote(c.name) + " of " + c.kind.String() + " kind"
}

func (c fieldOfKind) Evaluate(ct *ContextType) error {
	fi, ok := ct.field(c.name)
	if !ok {
		return MissingFieldError{Context: ct.name, Field: c.name}
	}
	if !c.kind.matches(fi.typ) {
		return FieldTypeError{
			Context: ct.name,
			Field:   c.name,
			Want:    c.kind.String() + " kind",
			Got:     fi.typ.String(),
		}
	}
	return nil
}

// FieldTyped requires a field to exist with exactly the type T.
func FieldTyped[T any](name string) Constraint {
	return fieldTyped{name: name, typ: TypeFor[T]()}
}

type fieldTyped struct {
	name string
	typ  reflect.Type
}

func (c fieldTyped) Describe() string {
	return "field " + strconv.Quote(c.name) + " of type " + c.typ.String()
}

func (c fieldTyped) Evaluate(ct *ContextType) error {
	fi, ok := ct.field(c.name)
	if !ok {
		return MissingFieldError{Context: ct.name, Field: c.name}
	}
	if fi.typ != c.typ {
		return FieldTypeError{Context: ct.name, Field: c.name, Want: c.typ.String(), Got: fi.typ.String()}
	}
	return nil
}

// FieldImplements requires a field whose type (or pointer type) satisfies
// the interface T. T must be an interface type; anything else panics at
// construction since it is a programming error, not runtime data.
func FieldImplements[T any](name string) Constraint {
	iface := TypeFor[T]()
	if iface.Kind() != reflect.Interface {
		panic("caps: FieldImplements requires an interface type argument, got " + iface.String())
	}
	return fieldImplements{name: name, iface: iface}
}

type fieldImplements struct {
	name  string
	iface reflect.Type
}

func (c fieldImplements) Describe() string {
	return "field " + strconv.Quote(c.name) + " implementing " + c.iface.String()
}

func (c fieldImplements) Evaluate(ct *ContextType) error {
	fi, ok := ct.field(c.name)
	if !ok {
		return MissingFieldError{Context: ct.name, Field: c.name}
	}
	if fi.typ.Implements(c.iface) || reflect.PointerTo(fi.typ).Implements(c.iface) {
		return nil
	}
	return FieldTypeError{Context: ct.name, Field: c.name, Want: c.iface.String(), Got: fi.typ.String()}
}

// HasAssoc requires the context type to declare an associated type under the
// given name.
func HasAssoc(name string) Constraint { return hasAssoc{name: name} }

type hasAssoc struct{ name string }

func (c hasAssoc) Describe() string { return "associated type " + strconv.Quote(c.name) }

func (c hasAssoc) Evaluate(ct *ContextType) error {
	if _, ok := ct.assoc[c.name]; !ok {
		return MissingAssocError{Context: ct.name, Assoc: c.name}
	}
	return nil
}

// AssocIs requires an associated type to be declared and bound to exactly t.
// Providers use it to restrict themselves to contexts that made a specific
// type choice, without that choice appearing in any capability signature.
func AssocIs(name string, t reflect.Type) Constraint {
	return assocIs{name: name, typ: t}
}

type assocIs struct {
	name string
	typ  reflect.Type
}

func (c assocIs) Describe() string {
	return "associated type " + strconv.Quote(c.name) + " = " + c.typ.String()
}

func (c assocIs) Evaluate(ct *ContextType) error {
	got, ok := ct.assoc[c.name]
	if !ok {
		return MissingAssocError{Context: ct.name, Assoc: c.name}
	}
	if got != c.typ {
		return AssocTypeError{Context: ct.name, Assoc: c.name, Want: c.typ.String(), Got: got.String()}
	}
	return nil
}

// Implements requires the context's Go type to satisfy the interface T.
// Method sets on the pointer type count, since bound context values are
// always pointers. T must be an interface type.
func Implements[T any]() Constraint {
	iface := TypeFor[T]()
	if iface.Kind() != reflect.Interface {
		panic("caps: Implements requires an interface type argument, got " + iface.String())
	}
	return implements{iface: iface}
}

type implements struct{ iface reflect.Type }

func (c implements) Describe() string { return "implements " + c.iface.String() }

func (c implements) Evaluate(ct *ContextType) error {
	if ct.goType.Implements(c.iface) || reflect.PointerTo(ct.goType).Implements(c.iface) {
		return nil
	}
	return ImplementsError{Context: ct.name, Interface: c.iface.String()}
}

// Can requires the context to be able to resolve AND satisfy another
// capability. This is how a provider states a dependency on a sibling
// capability of the same context without naming a concrete implementation.
//
// Evaluation recurses into the other capability's chain; loops between Can
// constraints are detected and reported as a CycleError cause.
func Can(cap *Capability) Constraint { return can{cap: cap} }

// CanKeyed is Can for keyed capabilities.
func CanKeyed(cap *Capability, key AuxKey) Constraint { return can{cap: cap, key: key} }

type can struct {
	cap *Capability
	key AuxKey
}

func (c can) Describe() string {
	if c.cap == nil {
		return "can use capability <nil>"
	}
	s := "can use capability " + strconv.Quote(c.cap.name)
	if !c.key.IsZero() {
		s += " key " + c.key.String()
	}
	return s
}

func (c can) Evaluate(ct *ContextType) error {
	return c.evaluateIn(ct, newCheckGuard())
}

func (c can) evaluateIn(ct *ContextType, g *checkGuard) error {
	if c.cap == nil {
		return ErrNilCapability
	}
	ch, err := ct.reg.Resolve(ct, c.cap, c.key)
	if err != nil {
		return err
	}
	return ct.reg.checkChain(ct, ch, g)
}

// Predicate wraps an arbitrary check into a Constraint. desc appears in
// error messages exactly like the built-in descriptions; fn returns nil or
// the cause to surface.
func Predicate(desc string, fn func(ct *ContextType) error) Constraint {
	return predicate{desc: desc, fn: fn}
}

type predicate struct {
	desc string
	fn   func(ct *ContextType) error
}

func (c predicate) Describe() string { return c.desc }

func (c predicate) Evaluate(ct *ContextType) error {
	if c.fn == nil {
		return nil
	}
	return c.fn(ct)
}
