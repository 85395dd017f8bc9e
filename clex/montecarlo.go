package clex

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/xivh/djlib/utils"
)

// MonteCarloParameters configure one Metropolis-Hastings walk through ECI
// space. Validate runs before any computation starts.
type MonteCarloParameters struct {
	ECIWalkStepSize float64 // Euclidean norm of every proposal step
	Iterations      int
	SampleFrequency int
	BurnIn          int
	Seed            uint64
}

func (p MonteCarloParameters) Validate() error {
	if p.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, have %d", p.Iterations)
	}
	if p.SampleFrequency < 1 {
		return fmt.Errorf("sample frequency must be at least 1, have %d", p.SampleFrequency)
	}
	if p.BurnIn < 0 || p.BurnIn >= p.Iterations {
		return fmt.Errorf("burn in must be in [0,%d), have %d", p.Iterations, p.BurnIn)
	}
	if p.ECIWalkStepSize < 0 || math.IsNaN(p.ECIWalkStepSize) || math.IsInf(p.ECIWalkStepSize, 0) {
		return fmt.Errorf("eci walk step size must be finite and non-negative, have %v", p.ECIWalkStepSize)
	}
	return nil
}

// MonteCarlo samples ECI space with a Metropolis-Hastings walk seeded by
// the L1-regression fit. Each proposal has a fixed Euclidean length and a
// uniformly random direction, so step-size tuning is decoupled from the
// number of coefficients. The sampler owns its working ECI vector and
// trace; the dataset is shared read-only.
type MonteCarlo struct {
	Data     *Dataset
	Params   MonteCarloParameters
	LassoECI utils.Vector

	scanner    *GroundStateScanner
	corrCalc   utils.Matrix
	energyCalc utils.Vector
	rng        *rand.Rand
	normal     distuv.Normal
}

func NewMonteCarlo(ds *Dataset, params MonteCarloParameters) (mc *MonteCarlo, err error) {
	if err = params.Validate(); err != nil {
		return nil, err
	}
	scanner, err := NewGroundStateScanner(ds)
	if err != nil {
		return nil, err
	}
	corrCalc, _, energyCalc := ds.Calculated()
	lasso := NewLassoCV()
	lasso.Seed = params.Seed
	lassoECI, err := lasso.Fit(corrCalc, energyCalc)
	if err != nil {
		return nil, fmt.Errorf("seed regression failed: %w", err)
	}
	rng := rand.New(rand.NewSource(params.Seed))
	mc = &MonteCarlo{
		Data:       ds,
		Params:     params,
		LassoECI:   lassoECI,
		scanner:    scanner,
		corrCalc:   corrCalc,
		energyCalc: energyCalc,
		rng:        rng,
		normal:     distuv.Normal{Mu: 0, Sigma: 1, Src: rng},
	}
	return
}

// MetropolisHastingsRatio is the asymmetric acceptance ratio of Zabaras
// et al. (10.1016/j.cpc.2014.07.013, first factor pair of eq. 12),
// clamped to at most 1:
//
//	(|proposed|_1 / |current|_1)^(-k) * (|f - Ep|_2 / |f - Ec|_2)^(-n)
//
// with k the number of ECI and n the number of calculated configurations.
// The exponents are a fixed contract: changing a sign silently changes
// the stationary distribution.
func MetropolisHastingsRatio(currentECI, proposedECI, currentEnergy, proposedEnergy, formationEnergy utils.Vector) (ratio float64) {
	var (
		k = float64(currentECI.Len())
		n = float64(formationEnergy.Len())
	)
	left := math.Pow(proposedECI.Norm(1)/currentECI.Norm(1), -k)
	right := math.Pow(
		formationEnergy.Copy().Sub(proposedEnergy).Norm(2)/formationEnergy.Copy().Sub(currentEnergy).Norm(2), -n)
	ratio = left * right
	if ratio > 1 {
		ratio = 1
	}
	return
}

// perturbation draws independent standard normal components and rescales
// the vector to exactly the configured step size, randomizing only the
// direction.
func (mc *MonteCarlo) perturbation() (v utils.Vector) {
	var (
		k    = mc.Data.NumCorrelations()
		data = make([]float64, k)
	)
	for j := range data {
		data[j] = mc.normal.Rand()
	}
	v = utils.NewVector(k, data)
	if norm := v.Norm(2); norm > 0 {
		v.Scale(mc.Params.ECIWalkStepSize / norm)
	}
	return
}

// Run executes the walk: Initializing -> Burning-in -> Sampling ->
// Finished. Sampling starts at step index BurnIn; on sampled steps the
// current ECI is recorded and the full dataset is audited for below-hull
// predictions. Cancellation is checked between steps and returns the
// partial trace without error; a NaN or Inf anywhere aborts with a
// NumericalInstabilityError.
func (mc *MonteCarlo) Run(ctx context.Context) (tr *Trace, err error) {
	var (
		p             = mc.Params
		current       = mc.LassoECI.Copy()
		currentEnergy = mc.corrCalc.MulVec(current)
	)
	tr = &Trace{
		Iterations:           0,
		SampleFrequency:      p.SampleFrequency,
		BurnIn:               p.BurnIn,
		Seed:                 p.Seed,
		ProposedGroundStates: []int{},
		Names:                mc.Data.Names,
		LassoECI:             append([]float64{}, mc.LassoECI.RawVector().Data...),
	}
	if currentEnergy.HasNaNOrInf() {
		return tr, &NumericalInstabilityError{Step: 0, Quantity: "seed predicted energies"}
	}
	for i := 0; i < p.Iterations; i++ {
		select {
		case <-ctx.Done():
			// Partial progress through the last completed step is a
			// result, not an error
			tr.finalize()
			return tr, nil
		default:
		}
		proposed := current.Copy().Add(mc.perturbation())
		proposedEnergy := mc.corrCalc.MulVec(proposed)
		if proposedEnergy.HasNaNOrInf() {
			return tr, &NumericalInstabilityError{Step: i, Quantity: "proposed energies"}
		}
		ratio := MetropolisHastingsRatio(current, proposed, currentEnergy, proposedEnergy, mc.energyCalc)
		if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			return tr, &NumericalInstabilityError{Step: i, Quantity: "acceptance ratio"}
		}
		accepted := ratio >= mc.rng.Float64()
		if accepted {
			current = proposed
			currentEnergy = proposedEnergy
		}
		tr.Acceptance = append(tr.Acceptance, accepted)
		tr.RMS = append(tr.RMS, currentEnergy.RMS(mc.energyCalc))

		if i >= p.BurnIn && i%p.SampleFrequency == 0 {
			tr.SampledECI = append(tr.SampledECI, append([]float64{}, current.RawVector().Data...))
			dist, derr := mc.scanner.HullDistances(current)
			if derr != nil {
				return tr, fmt.Errorf("hull audit at step %d: %w", i, derr)
			}
			for _, ind := range BelowHull(dist) {
				tr.ProposedGroundStates = append(tr.ProposedGroundStates, ind)
			}
		}
		tr.Iterations = i + 1
	}
	tr.finalize()
	return
}

// RunChains executes independent walks with seeds derived from the base
// seed, one worker per chain over the shared read-only dataset. Each
// chain owns its sampler and trace; results merge by chain index.
func RunChains(ctx context.Context, ds *Dataset, params MonteCarloParameters, chains int) (traces []*Trace, err error) {
	if chains < 1 {
		return nil, fmt.Errorf("chain count must be at least 1, have %d", chains)
	}
	traces = make([]*Trace, chains)
	g, ctx := errgroup.WithContext(ctx)
	for c := 0; c < chains; c++ {
		c := c
		chainParams := params
		chainParams.Seed = params.Seed + uint64(c)
		g.Go(func() error {
			mc, err := NewMonteCarlo(ds, chainParams)
			if err != nil {
				return fmt.Errorf("chain %d: %w", c, err)
			}
			tr, err := mc.Run(ctx)
			if err != nil {
				return fmt.Errorf("chain %d: %w", c, err)
			}
			traces[c] = tr
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	return
}
