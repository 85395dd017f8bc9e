package utils

import "sort"

type Index []int

func NewIndex(N int) (I Index) {
	return make(Index, N)
}

func NewRange(rmin, rmax int) (r Index) {
	var (
		size = rmax - rmin + 1 // INCLUSIVE RANGE
	)
	r = make(Index, size)
	for i := range r {
		r[i] = i + rmin
	}
	return
}

// Unique returns the sorted set of distinct values in I
func (I Index) Unique() (R Index) {
	var (
		seen = make(map[int]struct{}, len(I))
	)
	for _, ind := range I {
		seen[ind] = struct{}{}
	}
	R = make(Index, 0, len(seen))
	for ind := range seen {
		R = append(R, ind)
	}
	sort.Ints(R)
	return
}

func (I Index) Contains(val int) bool {
	for _, ind := range I {
		if ind == val {
			return true
		}
	}
	return false
}

// Counts returns the multiplicity of each value in I
func (I Index) Counts() (counts map[int]int) {
	counts = make(map[int]int, len(I))
	for _, ind := range I {
		counts[ind]++
	}
	return
}
