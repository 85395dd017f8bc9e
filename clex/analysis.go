package clex

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/xivh/djlib/utils"
)

// RMSOverSet returns the root mean square prediction error of each
// candidate ECI vector against the given correlations and energies.
func RMSOverSet(corr utils.Matrix, energy utils.Vector, eciSet []utils.Vector) (rms []float64) {
	rms = make([]float64, len(eciSet))
	for i, eci := range eciSet {
		rms[i] = corr.MulVec(eci).RMS(energy)
	}
	return
}

// ECISummary reduces a sampled ECI matrix (one sample per row) to
// per-coefficient mean and standard deviation.
func ECISummary(sampled [][]float64) (means, stddevs []float64, err error) {
	if len(sampled) == 0 {
		return nil, nil, fmt.Errorf("no sampled ECI to summarize")
	}
	var (
		k      = len(sampled[0])
		column = make([]float64, len(sampled))
	)
	means = make([]float64, k)
	stddevs = make([]float64, k)
	for j := 0; j < k; j++ {
		for i, row := range sampled {
			if len(row) != k {
				return nil, nil, fmt.Errorf("ragged sample %d: %d coefficients, want %d", i, len(row), k)
			}
			column[i] = row[j]
		}
		if means[j], err = stats.Mean(stats.Float64Data(column)); err != nil {
			return nil, nil, err
		}
		if stddevs[j], err = stats.StandardDeviation(stats.Float64Data(column)); err != nil {
			return nil, nil, err
		}
	}
	return
}

// TrainTestResult carries per-sample RMS against externally partitioned
// training and testing datasets, plus the error of the mean ECI on the
// testing partition.
type TrainTestResult struct {
	TrainingRMS       []float64
	TestingRMS        []float64
	MeanECI           []float64
	MeanECITestingRMS float64
}

// TrainTestRMS evaluates an ECI sample set against a train/test split.
// Partitioning itself (k-fold directories, shuffle splits) is managed by
// the caller; only the statistics live here.
func TrainTestRMS(train, test *Dataset, eciSet []utils.Vector) (res *TrainTestResult, err error) {
	if len(eciSet) == 0 {
		return nil, fmt.Errorf("no ECI samples to evaluate")
	}
	var (
		trainCorr, _, trainEnergy = train.Calculated()
		testCorr, _, testEnergy   = test.Calculated()
		k                         = eciSet[0].Len()
	)
	sampled := make([][]float64, len(eciSet))
	for i, eci := range eciSet {
		if eci.Len() != k {
			return nil, fmt.Errorf("ragged ECI set: sample %d has %d coefficients, want %d", i, eci.Len(), k)
		}
		sampled[i] = append([]float64{}, eci.RawVector().Data...)
	}
	means, _, err := ECISummary(sampled)
	if err != nil {
		return nil, err
	}
	meanECI := utils.NewVector(k, means)
	res = &TrainTestResult{
		TrainingRMS:       RMSOverSet(trainCorr, trainEnergy, eciSet),
		TestingRMS:        RMSOverSet(testCorr, testEnergy, eciSet),
		MeanECI:           means,
		MeanECITestingRMS: testCorr.MulVec(meanECI).RMS(testEnergy),
	}
	return
}
