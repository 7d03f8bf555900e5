package caps

import "reflect"

// Field returns the value of a declared field, typed as T.
//
// The name is looked up in the context type's field table, so only names
// validated at declaration can ever succeed; an unknown name is a
// MissingFieldError and a declared field of a different type is a
// FieldTypeError. T may be an interface type the field value satisfies.
func Field[T any](c Context, name string) (T, error) {
	var zero T
	if !c.Valid() {
		return zero, ErrInvalidContext
	}
	fi, ok := c.ct.field(name)
	if !ok {
		return zero, MissingFieldError{Context: c.ct.name, Field: name}
	}
	raw := reflect.ValueOf(c.val).Elem().Field(fi.index).Interface()
	v, ok := raw.(T)
	if !ok {
		return zero, FieldTypeError{
			Context: c.ct.name,
			Field:   name,
			Want:    TypeFor[T]().String(),
			Got:     fi.typ.String(),
		}
	}
	return v, nil
}

// FieldRef returns a pointer to a declared field, typed as *T.
//
// Unlike Field, the field's declared type must be exactly T; a pointer to a
// differently typed field is unusable. Providers use FieldRef to mutate
// context state in place.
func FieldRef[T any](c Context, name string) (*T, error) {
	if !c.Valid() {
		return nil, ErrInvalidContext
	}
	fi, ok := c.ct.field(name)
	if !ok {
		return nil, MissingFieldError{Context: c.ct.name, Field: name}
	}
	if fi.typ != TypeFor[T]() {
		return nil, FieldTypeError{
			Context: c.ct.name,
			Field:   name,
			Want:    TypeFor[T]().String(),
			Got:     fi.typ.String(),
		}
	}
	ref := reflect.ValueOf(c.val).Elem().Field(fi.index).Addr().Interface()
	return ref.(*T), nil
}

// MustField is Field or panic.
func MustField[T any](c Context, name string) T {
	v, err := Field[T](c, name)
	if err != nil {
		panic(err)
	}
	return v
}

// MustFieldRef is FieldRef or panic.
func MustFieldRef[T any](c Context, name string) *T {
	ref, err := FieldRef[T](c, name)
	if err != nil {
		panic(err)
	}
	return ref
}
