package clex

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xivh/djlib/utils"
)

// scanTestDataset holds three calculated binary ground states plus two
// uncalculated candidates: one inside the composition span, one outside.
// The single correlation column doubles as the predicted energy under
// eci = [1].
func scanTestDataset(t *testing.T) *Dataset {
	t.Helper()
	var (
		corr = utils.NewMatrix(5, 1, []float64{
			0,
			-0.1,
			-0.05,
			-0.07,
			-1,
		})
		comp   = utils.NewMatrix(5, 1, []float64{0, 0.5, 1, 0.25, 1.5})
		energy = []FormationEnergy{
			{Value: 0, Calculated: true},
			{Value: -0.1, Calculated: true},
			{Value: -0.05, Calculated: true},
			{},
			{},
		}
	)
	ds, err := NewDataset(corr, comp, energy, nil)
	assert.NoError(t, err)
	return ds
}

func TestGroundStateScanner(t *testing.T) {
	ds := scanTestDataset(t)
	gs, err := NewGroundStateScanner(ds)
	assert.NoError(t, err)
	assert.Equal(t, utils.Index{0, 1, 2}, gs.HullVertices)

	// Under eci = [1] the predicted energies reproduce the DFT values,
	// so the hull configurations sit on the surface, the interior
	// candidate dips below it, and the out-of-span candidate is NaN
	eci := utils.NewVector(1, []float64{1})
	dist, err := gs.HullDistances(eci)
	assert.NoError(t, err)
	assert.InDelta(t, 0., dist[0], 1.e-9)
	assert.InDelta(t, 0., dist[1], 1.e-9)
	assert.InDelta(t, 0., dist[2], 1.e-9)
	assert.InDelta(t, -0.02, dist[3], 1.e-9)
	assert.True(t, math.IsNaN(dist[4]))

	assert.Equal(t, utils.Index{3}, BelowHull(dist))

	// Flipping the sign lifts the candidate above the re-interpolated
	// surface; NaN stays excluded
	dist, err = gs.HullDistances(utils.NewVector(1, []float64{-1}))
	assert.NoError(t, err)
	assert.Empty(t, BelowHull(dist))
}

func TestProposedGroundStates(t *testing.T) {
	ds := scanTestDataset(t)
	gs, err := NewGroundStateScanner(ds)
	assert.NoError(t, err)

	// Duplicates across candidates are preserved as a frequency signal
	eci := utils.NewVector(1, []float64{1})
	proposed, err := gs.ProposedGroundStates(context.Background(), []utils.Vector{eci, eci.Copy()})
	assert.NoError(t, err)
	assert.Equal(t, utils.Index{3, 3}, proposed)
	assert.Equal(t, 2, proposed.Counts()[3])

	// An empty candidate set is a valid no-op
	proposed, err = gs.ProposedGroundStates(context.Background(), nil)
	assert.NoError(t, err)
	assert.Equal(t, utils.Index{}, proposed)
}

func TestScannerInstability(t *testing.T) {
	ds := scanTestDataset(t)
	gs, err := NewGroundStateScanner(ds)
	assert.NoError(t, err)

	_, err = gs.HullDistances(utils.NewVector(1, []float64{math.NaN()}))
	var ne *NumericalInstabilityError
	assert.ErrorAs(t, err, &ne)
}

func TestScannerDegenerateHull(t *testing.T) {
	// Two calculated points cannot support a binary hull
	var (
		corr   = utils.NewMatrix(2, 1, []float64{0, -0.05})
		comp   = utils.NewMatrix(2, 1, []float64{0, 1})
		energy = []FormationEnergy{
			{Value: 0, Calculated: true},
			{Value: -0.05, Calculated: true},
		}
	)
	ds, err := NewDataset(corr, comp, energy, nil)
	assert.NoError(t, err)
	_, err = NewGroundStateScanner(ds)
	assert.Error(t, err)
}
