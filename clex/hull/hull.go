package hull

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/xivh/djlib/utils"
)

// GeometryError indicates the point set cannot support a full-dimensional
// convex hull: too few points, or affine rank below the space dimension
// (coplanar / collinear input).
type GeometryError struct {
	Points, Dim int
	Reason      string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("degenerate hull input: %d points in %d dimensions: %s", e.Points, e.Dim, e.Reason)
}

// Facet is one boundary simplex of a convex hull: Dim vertex indices into
// the point set, with a unit outward normal. The plane equation is
// Normal·x + Offset = 0; interior points evaluate negative.
type Facet struct {
	Vertices utils.Index
	Normal   []float64
	Offset   float64
}

// Eval returns the signed plane equation value at p. Positive means p is
// outside (beyond) this facet.
func (f *Facet) Eval(p []float64) (v float64) {
	v = f.Offset
	for i, n := range f.Normal {
		v += n * p[i]
	}
	return
}

type ConvexHull struct {
	Points utils.Matrix // one point per row
	Facets []*Facet
	Dim    int

	tol      float64
	interior []float64
}

// New computes the convex hull of the given points (one per row) with the
// incremental beneath-beyond algorithm. The facet set is simplicial: a
// non-simplicial face appears as multiple coplanar facets, as in a qhull
// triangulated output.
func New(points utils.Matrix) (h *ConvexHull, err error) {
	var (
		n, d = points.Dims()
	)
	if d < 2 {
		return nil, &GeometryError{Points: n, Dim: d, Reason: "need at least two dimensions"}
	}
	if n < d+1 {
		return nil, &GeometryError{Points: n, Dim: d, Reason: fmt.Sprintf("need at least %d points", d+1)}
	}
	h = &ConvexHull{
		Points: points,
		Dim:    d,
	}
	scale := 0.
	for _, val := range points.RawMatrix().Data {
		if a := math.Abs(val); a > scale {
			scale = a
		}
	}
	h.tol = 1.e-10 * (1. + scale)

	simplex, err := h.initialSimplex()
	if err != nil {
		return nil, err
	}
	h.interior = make([]float64, d)
	for _, ind := range simplex {
		for j := 0; j < d; j++ {
			h.interior[j] += points.At(ind, j) / float64(d+1)
		}
	}
	// The d+1 facets of the starting simplex, each omitting one vertex
	for omit := range simplex {
		verts := make(utils.Index, 0, d)
		for i, ind := range simplex {
			if i != omit {
				verts = append(verts, ind)
			}
		}
		h.Facets = append(h.Facets, h.newFacet(verts))
	}
	inSimplex := make(map[int]bool, d+1)
	for _, ind := range simplex {
		inSimplex[ind] = true
	}
	for i := 0; i < n; i++ {
		if !inSimplex[i] {
			h.addPoint(i)
		}
	}
	return
}

// Vertices returns the sorted, deduplicated point indices on the hull
// boundary.
func (h *ConvexHull) Vertices() (verts utils.Index) {
	var (
		all utils.Index
	)
	for _, f := range h.Facets {
		all = append(all, f.Vertices...)
	}
	verts = all.Unique()
	return
}

// initialSimplex greedily selects d+1 affinely independent points via
// Gram-Schmidt residuals.
func (h *ConvexHull) initialSimplex() (simplex utils.Index, err error) {
	var (
		n, d  = h.Points.Dims()
		basis [][]float64
	)
	simplex = utils.Index{0}
	p0 := h.Points.M.RawRowView(0)
	for len(basis) < d {
		best, bestRes := -1, h.tol
		var bestDir []float64
		for i := 1; i < n; i++ {
			if simplex.Contains(i) {
				continue
			}
			r := make([]float64, d)
			pi := h.Points.M.RawRowView(i)
			for j := 0; j < d; j++ {
				r[j] = pi[j] - p0[j]
			}
			for _, b := range basis {
				dot := 0.
				for j := 0; j < d; j++ {
					dot += r[j] * b[j]
				}
				for j := 0; j < d; j++ {
					r[j] -= dot * b[j]
				}
			}
			res := 0.
			for j := 0; j < d; j++ {
				res += r[j] * r[j]
			}
			res = math.Sqrt(res)
			if res > bestRes {
				best, bestRes = i, res
				for j := 0; j < d; j++ {
					r[j] /= res
				}
				bestDir = r
			}
		}
		if best < 0 {
			return nil, &GeometryError{
				Points: n, Dim: d,
				Reason: fmt.Sprintf("affine rank %d is below the space dimension", len(basis)),
			}
		}
		simplex = append(simplex, best)
		basis = append(basis, bestDir)
	}
	return
}

// newFacet builds the hyperplane through the given d vertices, oriented so
// the hull interior evaluates negative.
func (h *ConvexHull) newFacet(verts utils.Index) (f *Facet) {
	var (
		d = h.Dim
		A = mat.NewDense(d-1, d, nil)
	)
	v0 := h.Points.M.RawRowView(verts[0])
	for i := 1; i < d; i++ {
		vi := h.Points.M.RawRowView(verts[i])
		for j := 0; j < d; j++ {
			A.Set(i-1, j, vi[j]-v0[j])
		}
	}
	var svd mat.SVD
	if ok := svd.Factorize(A, mat.SVDFullV); !ok {
		panic(fmt.Errorf("SVD failed for facet %v", verts))
	}
	var V mat.Dense
	svd.VTo(&V)
	normal := make([]float64, d)
	for j := 0; j < d; j++ {
		normal[j] = V.At(j, d-1) // null direction of the edge span
	}
	offset := 0.
	for j := 0; j < d; j++ {
		offset -= normal[j] * v0[j]
	}
	f = &Facet{Vertices: verts, Normal: normal, Offset: offset}
	if f.Eval(h.interior) > 0 {
		for j := 0; j < d; j++ {
			f.Normal[j] = -f.Normal[j]
		}
		f.Offset = -f.Offset
	}
	return
}

// addPoint extends the hull to cover point i: facets visible from the
// point are replaced by a cone of new facets over the horizon ridges.
func (h *ConvexHull) addPoint(i int) {
	var (
		p       = h.Points.M.RawRowView(i)
		visible []*Facet
		keep    []*Facet
	)
	for _, f := range h.Facets {
		if f.Eval(p) > h.tol {
			visible = append(visible, f)
		} else {
			keep = append(keep, f)
		}
	}
	if len(visible) == 0 {
		return // interior or on the surface
	}
	// A ridge bounds exactly two facets; ridges seen once among the
	// visible set lie on the horizon.
	type ridge struct {
		verts utils.Index
		count int
	}
	ridges := make(map[string]*ridge)
	for _, f := range visible {
		for omit := range f.Vertices {
			rv := make(utils.Index, 0, h.Dim-1)
			for k, ind := range f.Vertices {
				if k != omit {
					rv = append(rv, ind)
				}
			}
			key := ridgeKey(rv)
			if r, exists := ridges[key]; exists {
				r.count++
			} else {
				ridges[key] = &ridge{verts: rv, count: 1}
			}
		}
	}
	h.Facets = keep
	for _, r := range ridges {
		if r.count != 1 {
			continue
		}
		verts := make(utils.Index, 0, h.Dim)
		verts = append(verts, r.verts...)
		verts = append(verts, i)
		h.Facets = append(h.Facets, h.newFacet(verts))
	}
}

func ridgeKey(verts utils.Index) string {
	var (
		s  = make([]int, len(verts))
		sb strings.Builder
	)
	copy(s, verts)
	sort.Ints(s)
	for _, v := range s {
		sb.WriteString(strconv.Itoa(v))
		sb.WriteByte(':')
	}
	return sb.String()
}
