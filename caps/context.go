package caps

import (
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ContextType is the declared shape of a context: its Go struct type, the
// aggregate its resolution starts from, a field table, and its associated
// types. It also owns the per-type resolution cache.
//
// Declaration happens once, during registration; afterwards a ContextType is
// read-only and safe to share across goroutines.
type ContextType struct {
	reg    *Registry
	name   string
	goType reflect.Type
	agg    *Aggregate
	fields map[string]fieldInfo
	assoc  map[string]reflect.Type

	// cache holds successful resolutions keyed by (capability, key).
	// Entries are immutable once stored; failures are never cached.
	cache sync.Map
}

// fieldInfo is one row of the field table, built once at declaration.
type fieldInfo struct {
	name  string
	typ   reflect.Type
	index int
}

// Name returns the declared context type name.
func (ct *ContextType) Name() string { return ct.name }

// GoType returns the underlying struct type. Bound values are pointers to it.
func (ct *ContextType) GoType() reflect.Type { return ct.goType }

// Aggregate returns the aggregate this context type resolves through.
func (ct *ContextType) Aggregate() *Aggregate { return ct.agg }

// Fields returns the declared field names in sorted order.
func (ct *ContextType) Fields() []string {
	names := make([]string, 0, len(ct.fields))
	for n := range ct.fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Assoc returns the Go type bound to an associated type name.
func (ct *ContextType) Assoc(name string) (reflect.Type, bool) {
	t, ok := ct.assoc[name]
	return t, ok
}

func (ct *ContextType) field(name string) (fieldInfo, bool) {
	fi, ok := ct.fields[name]
	return fi, ok
}

// ContextOption configures a context type declaration.
type ContextOption func(*contextConfig)

type contextConfig struct {
	assoc []assocDecl
}

type assocDecl struct {
	name string
	typ  reflect.Type
}

// Assoc declares an associated type on the context: a named type choice the
// context fixes once, which providers can require via AssocIs without the
// choice leaking into any capability signature.
//
//	caps.DeclareContext[App](r, "app", agg, caps.Assoc("Time", caps.TypeFor[time.Time]()))
func Assoc(name string, t reflect.Type) ContextOption {
	return func(cfg *contextConfig) {
		cfg.assoc = append(cfg.assoc, assocDecl{name: name, typ: t})
	}
}

// DeclareContext registers a context type for the struct T, resolving through
// agg.
//
// The field table is built here, once: every exported direct field of T is
// registered under its `cap` tag name when tagged, or its Go name otherwise.
// A tag of "-" excludes the field; unexported and embedded fields are not
// registered. All later field access and field constraints go through this
// table, so an unknown field name fails identically everywhere.
func DeclareContext[T any](r *Registry, name string, agg *Aggregate, opts ...ContextOption) (*ContextType, error) {
	if r == nil {
		return nil, ErrNilRegistry
	}
	if agg == nil {
		return nil, ErrNilAggregate
	}
	goType := TypeFor[T]()
	if goType.Kind() != reflect.Struct {
		return nil, ContextDeclError{Context: name, Detail: "context type " + goType.String() + " is not a struct"}
	}
	if _, exists := r.contexts[name]; exists {
		return nil, ConflictError{Kind: "context", Name: name}
	}
	if _, exists := r.contextsByType[goType]; exists {
		return nil, ConflictError{Kind: "context", Name: goType.String()}
	}

	cfg := &contextConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	fields := make(map[string]fieldInfo)
	for i := 0; i < goType.NumField(); i++ {
		f := goType.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}
		fname := f.Name
		if tag, ok := f.Tag.Lookup("cap"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				fname = tag
			}
		}
		if _, dup := fields[fname]; dup {
			return nil, ConflictError{Kind: "field", Name: fname}
		}
		fields[fname] = fieldInfo{name: fname, typ: f.Type, index: i}
	}

	assoc := make(map[string]reflect.Type, len(cfg.assoc))
	for _, a := range cfg.assoc {
		if _, dup := assoc[a.name]; dup {
			return nil, ConflictError{Kind: "associated type", Name: a.name}
		}
		assoc[a.name] = a.typ
	}

	ct := &ContextType{
		reg:    r,
		name:   name,
		goType: goType,
		agg:    agg,
		fields: fields,
		assoc:  assoc,
	}
	r.contexts[name] = ct
	r.contextsByType[goType] = ct
	r.log.Debug("context type declared",
		zap.String("context", name),
		zap.String("type", goType.String()),
		zap.String("aggregate", agg.name),
		zap.Int("fields", len(fields)),
	)
	return ct, nil
}

// MustDeclareContext is DeclareContext or panic.
func MustDeclareContext[T any](r *Registry, name string, agg *Aggregate, opts ...ContextOption) *ContextType {
	ct, err := DeclareContext[T](r, name, agg, opts...)
	if err != nil {
		panic(err)
	}
	return ct
}

// Context is the handle provider methods receive: a declared context type
// plus a live pointer to one of its values. It is a small value type, copied
// freely; the zero Context is invalid.
type Context struct {
	ct  *ContextType
	val any
}

// Bind associates a live value with its declared context type. value must be
// a non-nil pointer to a struct registered via DeclareContext; anything else
// is an UnknownContextError (or ErrNilValue).
//
// Bind itself resolves nothing. The returned handle is what gets passed to
// Use and to provider methods.
func (r *Registry) Bind(value any) (Context, error) {
	if r == nil {
		return Context{}, ErrNilRegistry
	}
	if value == nil {
		return Context{}, ErrNilValue
	}
	t := reflect.TypeOf(value)
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return Context{}, UnknownContextError{GoType: t.String()}
	}
	if reflect.ValueOf(value).IsNil() {
		return Context{}, ErrNilValue
	}
	ct, ok := r.contextsByType[t.Elem()]
	if !ok {
		return Context{}, UnknownContextError{GoType: t.String()}
	}
	return Context{ct: ct, val: value}, nil
}

// MustBind is Bind or panic.
func (r *Registry) MustBind(value any) Context {
	c, err := r.Bind(value)
	if err != nil {
		panic(err)
	}
	return c
}

// Valid reports whether the handle came from a successful Bind.
func (c Context) Valid() bool { return c.ct != nil && c.val != nil }

// Type returns the declared context type, nil for the zero Context.
func (c Context) Type() *ContextType { return c.ct }

// Value returns the bound pointer as stored, nil for the zero Context.
func (c Context) Value() any { return c.val }

// As returns the bound value typed as *T.
//
// Providers normally stay context-generic and reach into the context through
// Field, FieldRef and Use; As is the escape hatch for code that knows the
// concrete context it is working with (composition roots, tests).
func As[T any](c Context) (*T, error) {
	if !c.Valid() {
		return nil, ErrInvalidContext
	}
	v, ok := c.val.(*T)
	if !ok {
		return nil, ContextTypeError{
			Want: reflect.TypeOf((*T)(nil)).String(),
			Got:  reflect.TypeOf(c.val).String(),
		}
	}
	return v, nil
}
