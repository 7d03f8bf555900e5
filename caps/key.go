package caps

import (
	"reflect"
	"strconv"
)

// AuxKey selects one edge among several wired for the same keyed capability
// on an aggregate. It stands in for an auxiliary type parameter: the part of
// a capability's identity that varies per use site without changing the
// capability's signatures.
//
// Keys come in two flavors. Type keys carry a Go type and are the natural
// choice when dispatch follows the type of a value (see TypeKey and
// TypeKeyOf). Name keys carry a plain string token and exist so wiring
// documents and tests can spell keys without referring to Go types.
//
// AuxKey is comparable and usable as a map key. The zero value (NoKey) means
// "unkeyed" and is only valid with capabilities declared via Declare;
// capabilities declared via DeclareKeyed reject it.
type AuxKey struct {
	t    reflect.Type
	name string
}

// NoKey is the zero AuxKey, used with unkeyed capabilities.
var NoKey AuxKey

// TypeKey returns the type key for T.
//
// T may be any type, including an interface type; the key carries T itself,
// not a value's dynamic type.
func TypeKey[T any]() AuxKey {
	return AuxKey{t: reflect.TypeOf((*T)(nil)).Elem()}
}

// TypeKeyOf returns the type key for v's dynamic type.
//
// This is the dispatch-site companion to TypeKey: wiring registers edges with
// TypeKey[Concrete], and a dispatch helper holding a value of static type any
// selects the edge with TypeKeyOf(v). A nil v yields NoKey.
func TypeKeyOf(v any) AuxKey {
	if v == nil {
		return NoKey
	}
	return AuxKey{t: reflect.TypeOf(v)}
}

// NameKey returns the name key for a string token.
func NameKey(name string) AuxKey {
	return AuxKey{name: name}
}

// IsZero reports whether k is NoKey.
func (k AuxKey) IsZero() bool { return k.t == nil && k.name == "" }

// Type returns the Go type of a type key, or nil for name keys and NoKey.
func (k AuxKey) Type() reflect.Type { return k.t }

// Name returns the token of a name key, or "" for type keys and NoKey.
func (k AuxKey) Name() string { return k.name }

// String renders the key for logs and error messages.
func (k AuxKey) String() string {
	switch {
	case k.t != nil:
		return "type:" + k.t.String()
	case k.name != "":
		return "name:" + strconv.Quote(k.name)
	default:
		return "unkeyed"
	}
}

// TypeFor returns the reflect.Type of T. It is a small convenience for
// declaring associated types and assoc constraints without writing the
// reflect incantation at every call site.
func TypeFor[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
