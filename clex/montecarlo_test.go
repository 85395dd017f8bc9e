package clex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xivh/djlib/utils"
)

// mcTestDataset is a noiseless binary system: four calculated
// configurations whose energies are exactly linear in the two
// correlations, all sitting on the lower hull.
func mcTestDataset(t *testing.T) *Dataset {
	t.Helper()
	var (
		corr = utils.NewMatrix(4, 2, []float64{
			1, 0,
			0, 1,
			1, 1,
			2, 1,
		})
		comp   = utils.NewMatrix(4, 1, []float64{0, 0.25, 0.75, 1})
		truth  = utils.NewVector(2, []float64{0.05, -0.15})
		energy = make([]FormationEnergy, 4)
	)
	values := corr.MulVec(truth)
	for i := range energy {
		energy[i] = FormationEnergy{Value: values.AtVec(i), Calculated: true}
	}
	ds, err := NewDataset(corr, comp, energy, []string{"A", "A3B", "AB3", "B"})
	assert.NoError(t, err)
	return ds
}

func TestMonteCarloParametersValidate(t *testing.T) {
	good := MonteCarloParameters{ECIWalkStepSize: 0.01, Iterations: 10, SampleFrequency: 2, BurnIn: 1}
	assert.NoError(t, good.Validate())

	cases := []MonteCarloParameters{
		{ECIWalkStepSize: 0.01, Iterations: 0, SampleFrequency: 2, BurnIn: 0},
		{ECIWalkStepSize: 0.01, Iterations: 10, SampleFrequency: 0, BurnIn: 0},
		{ECIWalkStepSize: 0.01, Iterations: 10, SampleFrequency: 2, BurnIn: 10},
		{ECIWalkStepSize: 0.01, Iterations: 10, SampleFrequency: 2, BurnIn: -1},
		{ECIWalkStepSize: -0.01, Iterations: 10, SampleFrequency: 2, BurnIn: 0},
	}
	for _, p := range cases {
		assert.Error(t, p.Validate())
	}
}

func TestMetropolisHastingsRatio(t *testing.T) {
	var (
		f  = utils.NewVector(3, []float64{0, 0, 0})
		ec = utils.NewVector(3, []float64{0.1, 0.1, 0.1})
	)
	// Identical proposal: both factors are one
	c := utils.NewVector(2, []float64{1, 1})
	assert.Equal(t, 1., MetropolisHastingsRatio(c, c.Copy(), ec, ec.Copy(), f))

	// Worse proposal: (2)^-k * (2)^-n with k = 2, n = 3
	p := utils.NewVector(2, []float64{2, 2})
	ep := utils.NewVector(3, []float64{0.2, 0.2, 0.2})
	assert.InDelta(t, 0.25*0.125, MetropolisHastingsRatio(c, p, ec, ep, f), 1.e-12)

	// Better proposal clamps to one
	p = utils.NewVector(2, []float64{0.5, 0.5})
	ep = utils.NewVector(3, []float64{0.05, 0.05, 0.05})
	assert.Equal(t, 1., MetropolisHastingsRatio(c, p, ec, ep, f))
}

func TestMonteCarloZeroStep(t *testing.T) {
	// A zero step size degenerates every proposal to the current ECI:
	// the ratio is exactly one and every step is accepted
	ds := mcTestDataset(t)
	params := MonteCarloParameters{
		ECIWalkStepSize: 0,
		Iterations:      20,
		SampleFrequency: 5,
		BurnIn:          2,
		Seed:            7,
	}
	mc, err := NewMonteCarlo(ds, params)
	assert.NoError(t, err)
	tr, err := mc.Run(context.Background())
	assert.NoError(t, err)

	assert.Equal(t, 20, tr.Iterations)
	assert.Equal(t, 20, len(tr.Acceptance))
	assert.Equal(t, 20, len(tr.RMS))
	assert.Equal(t, 1., tr.AcceptanceProb)

	// Samples at steps 5, 10, 15
	assert.Equal(t, 3, len(tr.SampledECI))
	for _, eci := range tr.SampledECI {
		assert.Equal(t, tr.LassoECI, eci)
	}
	// The seed fit reproduces the hull, so nothing dips below it
	assert.Empty(t, tr.ProposedGroundStates)
	assert.Equal(t, []string{"A", "A3B", "AB3", "B"}, tr.Names)
}

func TestMonteCarloReproducible(t *testing.T) {
	ds := mcTestDataset(t)
	params := MonteCarloParameters{
		ECIWalkStepSize: 0.01,
		Iterations:      50,
		SampleFrequency: 5,
		BurnIn:          10,
		Seed:            9,
	}
	run := func() *Trace {
		mc, err := NewMonteCarlo(ds, params)
		assert.NoError(t, err)
		tr, err := mc.Run(context.Background())
		assert.NoError(t, err)
		return tr
	}
	a, b := run(), run()
	assert.Equal(t, a.SampledECI, b.SampledECI)
	assert.Equal(t, a.Acceptance, b.Acceptance)
	assert.Equal(t, a.RMS, b.RMS)
	assert.Equal(t, a.AcceptanceProb, b.AcceptanceProb)
}

func TestMonteCarloCancellation(t *testing.T) {
	ds := mcTestDataset(t)
	params := MonteCarloParameters{
		ECIWalkStepSize: 0.01,
		Iterations:      1000000,
		SampleFrequency: 10,
		BurnIn:          100,
	}
	mc, err := NewMonteCarlo(ds, params)
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr, err := mc.Run(ctx)
	assert.NoError(t, err) // partial progress is a result, not an error
	assert.Equal(t, 0, tr.Iterations)
	assert.Equal(t, 0., tr.AcceptanceProb)
}

func TestRunChains(t *testing.T) {
	ds := mcTestDataset(t)
	params := MonteCarloParameters{
		ECIWalkStepSize: 0.01,
		Iterations:      30,
		SampleFrequency: 5,
		BurnIn:          5,
		Seed:            3,
	}
	traces, err := RunChains(context.Background(), ds, params, 2)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(traces))
	assert.Equal(t, uint64(3), traces[0].Seed)
	assert.Equal(t, uint64(4), traces[1].Seed)
	for _, tr := range traces {
		assert.Equal(t, 30, tr.Iterations)
	}

	_, err = RunChains(context.Background(), ds, params, 0)
	assert.Error(t, err)
}
