package hull

import (
	"fmt"

	"github.com/xivh/djlib/utils"
)

// lowerTol guards against vertical facets whose energy-axis normal
// component is a rounding artifact of the SVD rather than a true
// downward orientation.
const lowerTol = 1.e-9

// LowerHull extracts the energy-minimizing envelope: facets whose outward
// unit normal has a strictly negative component along energyAxis. Facets
// facing upward or sideways (zero component) are excluded. Returns the
// facet vertex tuples and the sorted, deduplicated vertex indices that
// participate in at least one lower facet.
//
// The normal component is indexed by axis number directly, so the usual
// trap of indexing a packed [normal..., offset] equation row by its last
// position cannot occur here.
func (h *ConvexHull) LowerHull(energyAxis int) (simplices []utils.Index, vertices utils.Index) {
	if energyAxis < 0 || energyAxis > h.Dim-1 {
		panic(fmt.Errorf("energy axis %d out of range [0,%d]", energyAxis, h.Dim-1))
	}
	var (
		all utils.Index
	)
	for _, f := range h.Facets {
		if f.Normal[energyAxis] < -lowerTol {
			verts := make(utils.Index, len(f.Vertices))
			copy(verts, f.Vertices)
			simplices = append(simplices, verts)
			all = append(all, verts...)
		}
	}
	vertices = all.Unique()
	return
}
