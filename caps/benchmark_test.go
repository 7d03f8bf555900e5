package caps_test

import (
	"testing"

	"github.com/capwire/capwire/caps"
)

type benchGreeter interface {
	Greet(name string) string
}

type benchGreetContract interface {
	Greet(c caps.Context, name string) string
}

type benchGreetImpl struct{}

func (benchGreetImpl) Greet(_ caps.Context, name string) string { return "hi " + name }

type benchApp struct {
	Count int `cap:"count"`
	Name  string
}

/*
   Shared helpers (NOT counted in benchmarks)
*/

type benchWiring struct {
	reg   *caps.Registry
	greet *caps.Capability
	ctx   caps.Context
}

func newBenchWiring() benchWiring {
	r := caps.New()
	greet := caps.MustDeclare[benchGreeter, benchGreetContract](r, "bench.greet")
	p := r.MustProvide("impl", benchGreetImpl{}).
		Require(caps.HasField("count"), caps.FieldOfKind("count", caps.KindNumeric))
	core := r.MustDeclareAggregate("core")
	if err := core.Wire(greet, p); err != nil {
		panic(err)
	}
	caps.MustDeclareContext[benchApp](r, "app", core)
	return benchWiring{reg: r, greet: greet, ctx: r.MustBind(&benchApp{Count: 1})}
}

// newBenchChain adds two delegating hops in front of a fresh core aggregate
// so Resolve has a three-aggregate walk to do.
func newBenchChain() (*caps.Registry, *caps.Capability, *caps.ContextType) {
	r := caps.New()
	greet := caps.MustDeclare[benchGreeter, benchGreetContract](r, "bench.greet")
	p := r.MustProvide("impl", benchGreetImpl{})

	core := r.MustDeclareAggregate("core")
	mid := r.MustDeclareAggregate("mid")
	outer := r.MustDeclareAggregate("outer")
	if err := core.Wire(greet, p); err != nil {
		panic(err)
	}
	if err := mid.Delegate(greet, core); err != nil {
		panic(err)
	}
	if err := outer.Delegate(greet, mid); err != nil {
		panic(err)
	}
	ct := caps.MustDeclareContext[benchApp](r, "app", outer)
	return r, greet, ct
}

/*
   Benchmarks
*/

func BenchmarkUse_Cached(b *testing.B) {
	w := newBenchWiring()
	_, _ = caps.Use[benchGreetContract](w.ctx, w.greet) // warm the cache

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = caps.Use[benchGreetContract](w.ctx, w.greet)
	}
}

func BenchmarkUse_Invoke(b *testing.B) {
	w := newBenchWiring()
	g, err := caps.Use[benchGreetContract](w.ctx, w.greet)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = g.Greet(w.ctx, "world")
	}
}

func BenchmarkResolve_SingleEdge(b *testing.B) {
	w := newBenchWiring()
	ct := w.ctx.Type()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = w.reg.Resolve(ct, w.greet, caps.NoKey)
	}
}

func BenchmarkResolve_ThreeHopChain(b *testing.B) {
	r, greet, ct := newBenchChain()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Resolve(ct, greet, caps.NoKey)
	}
}

func BenchmarkCheck_FieldConstraints(b *testing.B) {
	w := newBenchWiring()
	ct := w.ctx.Type()
	ch, err := w.reg.Resolve(ct, w.greet, caps.NoKey)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = w.reg.Check(ct, ch)
	}
}

func BenchmarkUse_Unavailable(b *testing.B) {
	w := newBenchWiring()
	missing := caps.MustDeclare[benchGreeter, benchGreetContract](w.reg, "bench.missing")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = caps.Use[benchGreetContract](w.ctx, missing) // unresolved path (error)
	}
}

func BenchmarkField(b *testing.B) {
	w := newBenchWiring()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = caps.Field[int](w.ctx, "count")
	}
}

func BenchmarkBind(b *testing.B) {
	w := newBenchWiring()
	app := &benchApp{Count: 1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = w.reg.Bind(app)
	}
}
