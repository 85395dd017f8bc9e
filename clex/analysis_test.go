package clex

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xivh/djlib/utils"
)

func TestRMSOverSet(t *testing.T) {
	var (
		corr = utils.NewMatrix(3, 2, []float64{
			1, 0,
			0, 1,
			1, 1,
		})
		truth  = utils.NewVector(2, []float64{1.5, -2})
		energy = corr.MulVec(truth)
	)
	// The exact coefficients score zero; a shifted candidate does not
	off := utils.NewVector(2, []float64{1.5, -1})
	rms := RMSOverSet(corr, energy, []utils.Vector{truth, off})
	assert.InDelta(t, 0., rms[0], 1.e-12)
	assert.True(t, rms[1] > 0.5)
}

func TestECISummary(t *testing.T) {
	means, stddevs, err := ECISummary([][]float64{
		{1, 2},
		{3, 4},
	})
	assert.NoError(t, err)
	assert.InDelta(t, 2., means[0], 1.e-12)
	assert.InDelta(t, 3., means[1], 1.e-12)
	assert.InDelta(t, 1., stddevs[0], 1.e-12)
	assert.InDelta(t, 1., stddevs[1], 1.e-12)

	_, _, err = ECISummary(nil)
	assert.Error(t, err)

	_, _, err = ECISummary([][]float64{{1, 2}, {3}})
	assert.Error(t, err)
}

func TestTrainTestRMS(t *testing.T) {
	newDS := func(corr utils.Matrix, truth utils.Vector) *Dataset {
		n, _ := corr.Dims()
		values := corr.MulVec(truth)
		energy := make([]FormationEnergy, n)
		for i := range energy {
			energy[i] = FormationEnergy{Value: values.AtVec(i), Calculated: true}
		}
		comp := utils.NewMatrix(n, 1, make([]float64, n))
		ds, err := NewDataset(corr, comp, energy, nil)
		assert.NoError(t, err)
		return ds
	}
	var (
		truth = utils.NewVector(2, []float64{1.5, -2})
		train = newDS(utils.NewMatrix(3, 2, []float64{
			1, 0,
			0, 1,
			1, 1,
		}), truth)
		test = newDS(utils.NewMatrix(2, 2, []float64{
			2, 1,
			1, 2,
		}), truth)
	)
	res, err := TrainTestRMS(train, test, []utils.Vector{truth, truth.Copy()})
	assert.NoError(t, err)
	assert.InDelta(t, 0., res.TrainingRMS[0], 1.e-12)
	assert.InDelta(t, 0., res.TestingRMS[1], 1.e-12)
	assert.InDelta(t, 1.5, res.MeanECI[0], 1.e-12)
	assert.InDelta(t, -2., res.MeanECI[1], 1.e-12)
	assert.InDelta(t, 0., res.MeanECITestingRMS, 1.e-12)

	_, err = TrainTestRMS(train, test, nil)
	assert.Error(t, err)
}
