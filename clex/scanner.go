package clex

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/xivh/djlib/clex/hull"
	"github.com/xivh/djlib/utils"
)

// belowHullTol separates genuinely below-hull predictions from rounding
// noise at on-hull configurations.
const belowHullTol = 1.e-9

// GroundStateScanner audits candidate ECI vectors against the
// DFT-established ground-state hull. Construction builds the hull once
// from calculated configurations; each scan re-interpolates the hull
// surface from the candidate's predicted energies at the DFT hull
// vertices, so a negative distance means the candidate considers some
// configuration more stable than every DFT ground state at that
// composition.
type GroundStateScanner struct {
	Data *Dataset
	NP   int // worker count for ECI-set scans

	HullVertices utils.Index // hull vertex rows, as indices into the calculated subset

	hullCorr  utils.Matrix  // correlations of the hull vertex configurations
	hullComps utils.Matrix  // compositions of the same
	simplices []utils.Index // lower hull facets remapped onto the vertex subset
}

func NewGroundStateScanner(ds *Dataset) (gs *GroundStateScanner, err error) {
	var (
		corrCalc, compCalc, energyCalc = ds.Calculated()
		l                              = ds.NumCompAxes()
	)
	points := compCalc.StackVector(energyCalc)
	h, err := hull.New(points)
	if err != nil {
		return nil, fmt.Errorf("unable to build DFT hull: %w", err)
	}
	simplices, vertices := h.LowerHull(l) // energy is the last stacked column

	// Facet tuples index the calculated point set; remap them onto the
	// hull vertex subset used for interpolation
	position := make(map[int]int, len(vertices))
	for pos, ind := range vertices {
		position[ind] = pos
	}
	remapped := make([]utils.Index, len(simplices))
	for i, s := range simplices {
		remapped[i] = make(utils.Index, len(s))
		for j, ind := range s {
			remapped[i][j] = position[ind]
		}
	}
	gs = &GroundStateScanner{
		Data:         ds,
		NP:           runtime.NumCPU(),
		HullVertices: vertices,
		hullCorr:     corrCalc.SliceRows(vertices),
		hullComps:    compCalc.SliceRows(vertices),
		simplices:    remapped,
	}
	return
}

// HullDistances returns the signed distance of every configuration
// (calculated and uncalculated) from the hull surface re-interpolated
// with eci-predicted energies at the DFT hull vertices. Entries are NaN
// for compositions outside the hull's span.
func (gs *GroundStateScanner) HullDistances(eci utils.Vector) (dist []float64, err error) {
	fullPredicted := gs.Data.Corr.MulVec(eci)
	if fullPredicted.HasNaNOrInf() {
		return nil, &NumericalInstabilityError{Step: -1, Quantity: "predicted energies"}
	}
	hullPredicted := gs.hullCorr.MulVec(eci)
	ip, err := hull.NewInterpolator(gs.hullComps, hullPredicted, gs.simplices)
	if err != nil {
		return nil, err
	}
	dist = ip.Distances(gs.Data.Comp, fullPredicted)
	return
}

// BelowHull returns the configuration indices with distance below
// -belowHullTol. NaN distances (out-of-span queries) are undefined, not
// below, and are excluded.
func BelowHull(dist []float64) (I utils.Index) {
	for i, d := range dist {
		if d < -belowHullTol {
			I = append(I, i)
		}
	}
	return
}

// ProposedGroundStates scans every candidate in eciSet independently and
// concatenates the below-hull indices in candidate order. Duplicates
// across candidates are preserved: appearance frequency is the caller's
// confidence signal. An empty eciSet yields an empty result. Candidates
// run on NP parallel workers over the shared immutable inputs, each
// writing a private buffer.
func (gs *GroundStateScanner) ProposedGroundStates(ctx context.Context, eciSet []utils.Vector) (proposed utils.Index, err error) {
	if len(eciSet) == 0 {
		return utils.Index{}, nil
	}
	var (
		results = make([]utils.Index, len(eciSet))
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(gs.NP)
	for i, eci := range eciSet {
		i, eci := i, eci
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			dist, err := gs.HullDistances(eci)
			if err != nil {
				return fmt.Errorf("candidate %d: %w", i, err)
			}
			results[i] = BelowHull(dist)
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	proposed = utils.Index{}
	for _, r := range results {
		proposed = append(proposed, r...)
	}
	return
}
