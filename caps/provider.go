package caps

import (
	mmsemver "github.com/Masterminds/semver/v3"
	"go.uber.org/zap"
)

// Provider is a registered implementation value plus its metadata: a unique
// name, an optional semantic version, and a constraint set.
//
// The value is expected to be a stateless marker whose methods operate on the
// Context they receive; nothing enforces statelessness, but a provider shared
// through the resolution cache is invoked concurrently.
//
// One value may be registered once and wired to several capabilities, as long
// as it satisfies each capability's contract. Whether it does is checked at
// wiring time, never here.
type Provider struct {
	name     string
	impl     any
	version  *mmsemver.Version
	rawVer   string
	requires []Constraint
}

// Name returns the provider's registered name.
func (p *Provider) Name() string { return p.name }

// Version returns the declared semantic version string, empty when none was
// declared.
func (p *Provider) Version() string { return p.rawVer }

// Require appends constraints to the provider's constraint set and returns
// the provider for chaining.
//
// Constraints are evaluated lazily, at the first use of a capability wired to
// this provider on a concrete context. Attaching them before or after wiring
// makes no difference: wiring never reads them.
func (p *Provider) Require(cs ...Constraint) *Provider {
	if p == nil {
		return nil
	}
	for _, c := range cs {
		if c == nil {
			continue
		}
		p.requires = append(p.requires, c)
	}
	return p
}

// Requirements returns a copy of the provider's constraint set, for tooling
// and tests.
func (p *Provider) Requirements() []Constraint {
	if p == nil || len(p.requires) == 0 {
		return nil
	}
	out := make([]Constraint, len(p.requires))
	copy(out, p.requires)
	return out
}

// ProvideOption configures a provider at registration.
type ProvideOption func(*Provider)

// Version declares the provider's semantic version. Wire constraints
// (WithConstraint) validate against it; Provide fails with a VersionError
// when the string does not parse.
func Version(v string) ProvideOption {
	return func(p *Provider) { p.rawVer = v }
}

// Provide registers an implementation value under a unique provider name.
//
// impl must be non-nil; everything else about it is deferred. In particular
// no capability contract is checked here, since a provider may be wired to
// several capabilities or to none.
func (r *Registry) Provide(name string, impl any, opts ...ProvideOption) (*Provider, error) {
	if r == nil {
		return nil, ErrNilRegistry
	}
	if impl == nil {
		return nil, ErrNilImpl
	}
	if _, exists := r.providers[name]; exists {
		return nil, ConflictError{Kind: "provider", Name: name}
	}

	p := &Provider{name: name, impl: impl}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.rawVer != "" {
		v, err := mmsemver.NewVersion(p.rawVer)
		if err != nil {
			return nil, VersionError{Provider: name, Version: p.rawVer, Detail: "declares unparsable version"}
		}
		p.version = v
	}

	r.providers[name] = p
	r.log.Debug("provider registered",
		zap.String("provider", name),
		zap.String("version", p.rawVer),
	)
	return p, nil
}

// MustProvide is Provide or panic.
func (r *Registry) MustProvide(name string, impl any, opts ...ProvideOption) *Provider {
	p, err := r.Provide(name, impl, opts...)
	if err != nil {
		panic(err)
	}
	return p
}
