package caps

import (
	"reflect"

	"go.uber.org/zap"
)

// Capability is a declared unit of behavior: a name plus a pair of interface
// types. The consumer interface is the surface call sites program against;
// the provider contract is the same method set with an explicit leading
// Context parameter, which is what implementations write and what Use
// returns.
//
// A capability's identity is the *Capability pointer returned by Declare.
// Provider constraint sets never appear here; they are attached to providers
// and aggregates and stay invisible to both interfaces.
type Capability struct {
	name     string
	keyed    bool
	consumer reflect.Type
	contract reflect.Type
}

// Name returns the declared capability name.
func (c *Capability) Name() string { return c.name }

// Keyed reports whether the capability dispatches on an AuxKey.
func (c *Capability) Keyed() bool { return c.keyed }

// Consumer returns the consumer interface type.
func (c *Capability) Consumer() reflect.Type { return c.consumer }

// Contract returns the provider contract interface type.
func (c *Capability) Contract() reflect.Type { return c.contract }

// Declare registers an unkeyed capability under a unique name.
//
// I is the consumer interface, P the provider contract. Declaration links
// the two: every method of I must appear in P under the same name, taking
// Context as its first parameter followed by I's parameters, with identical
// results. P must not declare methods absent from I. Any mismatch is a
// LinkError at declaration time; the check never recurs afterwards.
//
// Example:
//
//	type Greeter interface{ Greet(name string) string }
//	type GreetProvider interface{ Greet(c caps.Context, name string) string }
//
//	greet, err := caps.Declare[Greeter, GreetProvider](r, "greeter.greet")
func Declare[I, P any](r *Registry, name string) (*Capability, error) {
	return declare[I, P](r, name, false)
}

// DeclareKeyed registers a keyed capability: wiring and resolution take an
// AuxKey, and distinct keys resolve independently on the same aggregate.
//
// A provider wired under one key may re-enter the same capability under
// another key (forwarding dispatch). Wiring a forwarding provider under the
// key it forwards to is the caller's own infinite recursion; nothing detects
// it here.
func DeclareKeyed[I, P any](r *Registry, name string) (*Capability, error) {
	return declare[I, P](r, name, true)
}

// MustDeclare is Declare or panic.
func MustDeclare[I, P any](r *Registry, name string) *Capability {
	cap, err := Declare[I, P](r, name)
	if err != nil {
		panic(err)
	}
	return cap
}

// MustDeclareKeyed is DeclareKeyed or panic.
func MustDeclareKeyed[I, P any](r *Registry, name string) *Capability {
	cap, err := DeclareKeyed[I, P](r, name)
	if err != nil {
		panic(err)
	}
	return cap
}

func declare[I, P any](r *Registry, name string, keyed bool) (*Capability, error) {
	if r == nil {
		return nil, ErrNilRegistry
	}
	consumer := TypeFor[I]()
	contract := TypeFor[P]()
	if err := link(name, consumer, contract); err != nil {
		return nil, err
	}
	if _, exists := r.capabilities[name]; exists {
		return nil, ConflictError{Kind: "capability", Name: name}
	}

	cap := &Capability{name: name, keyed: keyed, consumer: consumer, contract: contract}
	r.capabilities[name] = cap
	r.log.Debug("capability declared",
		zap.String("capability", name),
		zap.Bool("keyed", keyed),
		zap.String("consumer", consumer.String()),
		zap.String("contract", contract.String()),
	)
	return cap, nil
}

var contextType = reflect.TypeOf((*Context)(nil)).Elem()

// link validates the consumer/contract correspondence. It reports the first
// mismatch only; fixing declarations one finding at a time matches how the
// errors read.
func link(name string, consumer, contract reflect.Type) error {
	if consumer.Kind() != reflect.Interface {
		return LinkError{Capability: name, Detail: "consumer type " + consumer.String() + " is not an interface"}
	}
	if contract.Kind() != reflect.Interface {
		return LinkError{Capability: name, Detail: "contract type " + contract.String() + " is not an interface"}
	}
	if consumer.NumMethod() == 0 {
		return LinkError{Capability: name, Detail: "consumer interface " + consumer.String() + " has no methods"}
	}
	if contract.NumMethod() != consumer.NumMethod() {
		return LinkError{Capability: name, Detail: "contract " + contract.String() + " and consumer " + consumer.String() + " declare different method sets"}
	}

	for i := 0; i < consumer.NumMethod(); i++ {
		cm := consumer.Method(i)
		pm, ok := contract.MethodByName(cm.Name)
		if !ok {
			return LinkError{Capability: name, Detail: "contract is missing method " + cm.Name}
		}
		ct, pt := cm.Type, pm.Type

		if pt.NumIn() != ct.NumIn()+1 {
			return LinkError{Capability: name, Detail: "method " + cm.Name + " must take Context plus the consumer parameters"}
		}
		if pt.In(0) != contextType {
			return LinkError{Capability: name, Detail: "method " + cm.Name + " must take caps.Context as its first parameter"}
		}
		for j := 0; j < ct.NumIn(); j++ {
			if pt.In(j+1) != ct.In(j) {
				return LinkError{Capability: name, Detail: "method " + cm.Name + " parameter " + ct.In(j).String() + " does not match the contract"}
			}
		}
		if pt.IsVariadic() != ct.IsVariadic() {
			return LinkError{Capability: name, Detail: "method " + cm.Name + " variadic forms differ"}
		}

		if pt.NumOut() != ct.NumOut() {
			return LinkError{Capability: name, Detail: "method " + cm.Name + " result counts differ"}
		}
		for j := 0; j < ct.NumOut(); j++ {
			if pt.Out(j) != ct.Out(j) {
				return LinkError{Capability: name, Detail: "method " + cm.Name + " result " + ct.Out(j).String() + " does not match the contract"}
			}
		}
	}
	return nil
}
