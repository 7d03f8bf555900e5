package caps

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Internal test: the instruments are unexported on purpose, so the counter
// values are asserted from inside the package.

type meterGreeter interface {
	Greet(name string) string
}

type meterGreetContract interface {
	Greet(c Context, name string) string
}

type meterGreetImpl struct{}

func (meterGreetImpl) Greet(_ Context, name string) string { return "hi " + name }

type meterApp struct {
	Count int `cap:"count"`
}

func TestMetrics_TrackResolutionOutcomes(t *testing.T) {
	t.Parallel()

	promReg := prometheus.NewRegistry()
	r := New(WithMetrics(promReg))

	greet := MustDeclare[meterGreeter, meterGreetContract](r, "meter.greet")
	p := r.MustProvide("impl", meterGreetImpl{})
	core := r.MustDeclareAggregate("core")
	require.NoError(t, core.Wire(greet, p))
	MustDeclareContext[meterApp](r, "app", core)
	c := r.MustBind(&meterApp{})

	m := r.metrics
	require.NotNil(t, m)

	_, err := Use[meterGreetContract](c, greet)
	require.NoError(t, err)
	_, err = Use[meterGreetContract](c, greet)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolutions.WithLabelValues(outcomeResolved)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))

	missing := MustDeclare[meterGreeter, meterGreetContract](r, "meter.missing")
	_, err = Use[meterGreetContract](c, missing)
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolutions.WithLabelValues(outcomeUnresolved)))

	strict := MustDeclare[meterGreeter, meterGreetContract](r, "meter.strict")
	sp := r.MustProvide("strict-impl", meterGreetImpl{}).Require(HasField("absent"))
	require.NoError(t, core.Wire(strict, sp))
	_, err = Use[meterGreetContract](c, strict)
	require.Error(t, err)

	// The strict chain resolved, then failed its check.
	assert.Equal(t, 2.0, testutil.ToFloat64(m.resolutions.WithLabelValues(outcomeResolved)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.constraintFailures.WithLabelValues("meter.strict")))

	// Only successful walks observe a duration: the first Use and the strict
	// one. The cache hit and the unresolved walk do not.
	assert.Equal(t, uint64(2), histogramSamples(t, promReg, "capwire_resolve_duration_seconds"))
}

func histogramSamples(t *testing.T, g prometheus.Gatherer, name string) uint64 {
	t.Helper()
	fams, err := g.Gather()
	require.NoError(t, err)
	for _, f := range fams {
		if f.GetName() != name {
			continue
		}
		require.Len(t, f.GetMetric(), 1)
		return f.GetMetric()[0].GetHistogram().GetSampleCount()
	}
	t.Fatalf("histogram %q not gathered", name)
	return 0
}

func TestMetrics_CycleOutcome(t *testing.T) {
	t.Parallel()

	promReg := prometheus.NewRegistry()
	r := New(WithMetrics(promReg))

	greet := MustDeclare[meterGreeter, meterGreetContract](r, "meter.greet")
	a := r.MustDeclareAggregate("a")
	b := r.MustDeclareAggregate("b")
	require.NoError(t, a.Delegate(greet, b))
	require.NoError(t, b.Delegate(greet, a))
	ct := MustDeclareContext[meterApp](r, "app", a)

	_, err := r.Resolve(ct, greet, NoKey)
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.metrics.resolutions.WithLabelValues(outcomeCycle)))
}

func TestMetrics_DisabledIsInert(t *testing.T) {
	t.Parallel()

	r := New()
	assert.Nil(t, r.metrics)

	greet := MustDeclare[meterGreeter, meterGreetContract](r, "meter.greet")
	p := r.MustProvide("impl", meterGreetImpl{})
	core := r.MustDeclareAggregate("core")
	require.NoError(t, core.Wire(greet, p))
	MustDeclareContext[meterApp](r, "app", core)
	c := r.MustBind(&meterApp{})

	// Success and failure paths run with no instruments and no panics.
	_, err := Use[meterGreetContract](c, greet)
	require.NoError(t, err)
	missing := MustDeclare[meterGreeter, meterGreetContract](r, "meter.missing")
	_, err = Use[meterGreetContract](c, missing)
	require.Error(t, err)
}
