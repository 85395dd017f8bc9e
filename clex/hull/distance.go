package hull

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/xivh/djlib/utils"
)

// weightTol allows queries sitting exactly on a simplex boundary to
// resolve inside it despite rounding.
const weightTol = 1.e-9

// Interpolator evaluates a piecewise-linear surface over composition
// space, using hull facet simplices as the interpolation mesh. The
// energies need not be the hull energies themselves: the scanner
// re-interpolates the DFT hull geometry with cluster-expansion predicted
// energies at the same vertices.
type Interpolator struct {
	comps     utils.Matrix // m x l hull vertex compositions
	energies  utils.Vector // m surface values, one per vertex
	simplices []utils.Index
}

func NewInterpolator(comps utils.Matrix, energies utils.Vector, simplices []utils.Index) (ip *Interpolator, err error) {
	var (
		m, l = comps.Dims()
	)
	if energies.Len() != m {
		return nil, fmt.Errorf("interpolator dimension mismatch: %d compositions, %d energies", m, energies.Len())
	}
	for _, s := range simplices {
		if len(s) != l+1 {
			return nil, fmt.Errorf("simplex %v has %d vertices, want %d", s, len(s), l+1)
		}
		for _, ind := range s {
			if ind < 0 || ind > m-1 {
				return nil, fmt.Errorf("simplex %v indexes outside the %d hull vertices", s, m)
			}
		}
	}
	ip = &Interpolator{
		comps:     comps,
		energies:  energies,
		simplices: simplices,
	}
	return
}

// At returns the interpolated surface value at the query composition, or
// NaN when the query lies outside the convex span of the mesh. NaN is a
// distinct outcome class: callers decide whether to exclude or propagate
// it, never to zero it.
func (ip *Interpolator) At(query []float64) (val float64) {
	for _, s := range ip.simplices {
		w, inside := ip.barycentric(s, query)
		if !inside {
			continue
		}
		val = 0.
		for i, ind := range s {
			val += w[i] * ip.energies.AtVec(ind)
		}
		return
	}
	return math.NaN()
}

// Distances returns the signed distance of each query point from the
// interpolated surface: negative means below the hull (a proposed ground
// state), positive metastable, zero on the hull surface.
func (ip *Interpolator) Distances(queryComps utils.Matrix, queryEnergies utils.Vector) (dist []float64) {
	var (
		n, l = queryComps.Dims()
	)
	if queryEnergies.Len() != n {
		panic(fmt.Errorf("query dimension mismatch: %d compositions, %d energies", n, queryEnergies.Len()))
	}
	dist = make([]float64, n)
	query := make([]float64, l)
	for i := 0; i < n; i++ {
		for j := 0; j < l; j++ {
			query[j] = queryComps.At(i, j)
		}
		dist[i] = queryEnergies.AtVec(i) - ip.At(query)
	}
	return
}

// barycentric solves for the weights expressing query as a convex
// combination of the simplex corners. inside is false when the solve is
// singular (a degenerate projection) or any weight is negative.
func (ip *Interpolator) barycentric(s utils.Index, query []float64) (w []float64, inside bool) {
	var (
		m = len(s) // l+1
		A = mat.NewDense(m, m, nil)
		b = mat.NewVecDense(m, nil)
	)
	for j, ind := range s {
		for a := 0; a < m-1; a++ {
			A.Set(a, j, ip.comps.At(ind, a))
		}
		A.Set(m-1, j, 1.) // weights sum to one
	}
	for a := 0; a < m-1; a++ {
		b.SetVec(a, query[a])
	}
	b.SetVec(m-1, 1.)

	var lu mat.LU
	lu.Factorize(A)
	wVec := mat.NewVecDense(m, nil)
	if err := lu.SolveVecTo(wVec, false, b); err != nil {
		return nil, false
	}
	w = wVec.RawVector().Data
	for _, wi := range w {
		if wi < -weightTol || math.IsNaN(wi) {
			return nil, false
		}
	}
	return w, true
}

// SimplexCornerWeights computes the linear combination of simplex corner
// compositions that reproduces an interior point, with weights summing to
// one. The solve uses the SVD pseudo-inverse, so over- and
// under-determined corner sets both resolve to the minimum-norm solution.
func SimplexCornerWeights(interior []float64, corners utils.Matrix) (weights []float64, err error) {
	var (
		m, l = corners.Dims()
		A    = mat.NewDense(l+1, m, nil)
		b    = mat.NewVecDense(l+1, nil)
	)
	if len(interior) != l {
		return nil, fmt.Errorf("interior point has %d axes, corners have %d", len(interior), l)
	}
	for j := 0; j < m; j++ {
		for a := 0; a < l; a++ {
			A.Set(a, j, corners.At(j, a))
		}
		A.Set(l, j, 1.)
	}
	for a := 0; a < l; a++ {
		b.SetVec(a, interior[a])
	}
	b.SetVec(l, 1.)

	var svd mat.SVD
	if ok := svd.Factorize(A, mat.SVDThin); !ok {
		return nil, fmt.Errorf("SVD failed for corner matrix")
	}
	rank := svd.Rank(1.e-12)
	if rank == 0 {
		return nil, fmt.Errorf("corner matrix has rank zero")
	}
	wDense := mat.NewDense(m, 1, nil)
	bDense := mat.NewDense(l+1, 1, nil)
	for a := 0; a <= l; a++ {
		bDense.Set(a, 0, b.AtVec(a))
	}
	svd.SolveTo(wDense, bDense, rank)
	weights = make([]float64, m)
	for j := 0; j < m; j++ {
		weights[j] = wDense.At(j, 0)
	}
	return
}
