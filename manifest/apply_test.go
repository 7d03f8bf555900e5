package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capwire/capwire/caps"
	"github.com/capwire/capwire/manifest"
)

type applyGreeter interface {
	Greet(name string) string
}

type applyGreetContract interface {
	Greet(c caps.Context, name string) string
}

type prefixGreet struct {
	prefix string
}

func (p prefixGreet) Greet(_ caps.Context, name string) string { return p.prefix + name }

type applyApp struct {
	Count int `cap:"count"`
}

// newApplyRegistry registers the code-side names the documents below refer
// to. Aggregates and context types come after Apply.
func newApplyRegistry(t *testing.T) *caps.Registry {
	t.Helper()
	r := caps.New()
	caps.MustDeclare[applyGreeter, applyGreetContract](r, "app.greet")
	caps.MustDeclareKeyed[applyGreeter, applyGreetContract](r, "app.pick")
	r.MustProvide("hello", prefixGreet{prefix: "hello "}, caps.Version("1.2.0"))
	r.MustProvide("hey", prefixGreet{prefix: "hey "})
	return r
}

func TestApply_RoundTrip(t *testing.T) {
	t.Parallel()

	const doc = `
aggregates:
  - name: base
    wires:
      - capability: app.greet
        provider: hello
        constraint: ">=1.0.0 <2.0.0"
  - name: core
    delegates:
      - capability: app.greet
        to: base
`
	r := newApplyRegistry(t)
	d, err := manifest.Parse([]byte(doc))
	require.NoError(t, err)
	require.Empty(t, manifest.Lint(d))
	require.NoError(t, manifest.Apply(r, d))

	core, ok := r.Aggregate("core")
	require.True(t, ok)
	ct := caps.MustDeclareContext[applyApp](r, "app", core)

	greet, ok := r.Capability("app.greet")
	require.True(t, ok)
	ch, err := r.Resolve(ct, greet, caps.NoKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"core", "base", "hello"}, ch.Path())

	c := r.MustBind(&applyApp{})
	g, err := caps.Use[applyGreetContract](c, greet)
	require.NoError(t, err)
	assert.Equal(t, "hello world", g.Greet(c, "world"))
}

func TestApply_KeyedEdges(t *testing.T) {
	t.Parallel()

	const doc = `
aggregates:
  - name: core
    wires:
      - capability: app.pick
        key: "casual"
        provider: hey
      - capability: app.pick
        typeKey: formal
        provider: hello
`
	r := newApplyRegistry(t)
	d, err := manifest.Parse([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, manifest.Apply(r, d, manifest.WithTypeKeys(map[string]caps.AuxKey{
		"formal": caps.TypeKey[int](),
	})))

	core, _ := r.Aggregate("core")
	caps.MustDeclareContext[applyApp](r, "app", core)
	c := r.MustBind(&applyApp{})
	pick, _ := r.Capability("app.pick")

	casual, err := caps.UseKeyed[applyGreetContract](c, pick, caps.NameKey("casual"))
	require.NoError(t, err)
	assert.Equal(t, "hey there", casual.Greet(c, "there"))

	formal, err := caps.UseKeyed[applyGreetContract](c, pick, caps.TypeKey[int]())
	require.NoError(t, err)
	assert.Equal(t, "hello there", formal.Greet(c, "there"))
}

func TestApply_ExternalAggregate(t *testing.T) {
	t.Parallel()

	const doc = `
external:
  aggregates: [base]
aggregates:
  - name: core
    delegates:
      - capability: app.greet
        to: base
`
	r := newApplyRegistry(t)
	base := r.MustDeclareAggregate("base")
	greet, _ := r.Capability("app.greet")
	hello, _ := r.Provider("hello")
	require.NoError(t, base.Wire(greet, hello))

	d, err := manifest.Parse([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, manifest.Apply(r, d))

	core, _ := r.Aggregate("core")
	ct := caps.MustDeclareContext[applyApp](r, "app", core)
	ch, err := r.Resolve(ct, greet, caps.NoKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"core", "base", "hello"}, ch.Path())
}

func TestApply_Failures(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown capability",
			doc: `
aggregates:
  - name: core
    wires:
      - capability: app.absent
        provider: hello
`,
			want: `unknown capability "app.absent"`,
		},
		{
			name: "unknown provider",
			doc: `
aggregates:
  - name: core
    wires:
      - capability: app.greet
        provider: absent
`,
			want: `unknown provider "absent"`,
		},
		{
			name: "unknown external aggregate",
			doc: `
external:
  aggregates: [absent]
`,
			want: `unknown aggregate "absent"`,
		},
		{
			name: "delegate target missing",
			doc: `
aggregates:
  - name: core
    delegates:
      - capability: app.greet
        to: absent
`,
			want: `delegate target "absent"`,
		},
		{
			name: "both key forms",
			doc: `
aggregates:
  - name: core
    wires:
      - capability: app.pick
        key: "a"
        typeKey: b
        provider: hello
`,
			want: "key and typeKey are mutually exclusive",
		},
		{
			name: "unmapped typeKey alias",
			doc: `
aggregates:
  - name: core
    wires:
      - capability: app.pick
        typeKey: unmapped
        provider: hello
`,
			want: `typeKey alias "unmapped"`,
		},
		{
			name: "key on unkeyed capability",
			doc: `
aggregates:
  - name: core
    wires:
      - capability: app.greet
        key: "casual"
        provider: hello
`,
			want: "takes no dispatch key",
		},
		{
			name: "constraint unsatisfied",
			doc: `
aggregates:
  - name: core
    wires:
      - capability: app.greet
        provider: hello
        constraint: ">=2.0.0"
`,
			want: "does not satisfy",
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := newApplyRegistry(t)
			d, err := manifest.Parse([]byte(tc.doc))
			require.NoError(t, err)

			err = manifest.Apply(r, d)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestApply_ConflictsWithExistingAggregate(t *testing.T) {
	t.Parallel()

	const doc = `
aggregates:
  - name: core
`
	r := newApplyRegistry(t)
	d, err := manifest.Parse([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, manifest.Apply(r, d))

	err = manifest.Apply(r, d)
	require.Error(t, err)
	var conflict caps.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestApply_NilArguments(t *testing.T) {
	t.Parallel()

	r := newApplyRegistry(t)
	assert.ErrorIs(t, manifest.Apply(nil, &manifest.Document{}), caps.ErrNilRegistry)
	assert.ErrorIs(t, manifest.Apply(r, nil), manifest.ErrNilDocument)
}
