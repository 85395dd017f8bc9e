package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

type Vector struct {
	V *mat.VecDense
}

func NewVector(n int, dataO ...[]float64) (R Vector) {
	var v *mat.VecDense
	if len(dataO) != 0 {
		if len(dataO[0]) != n {
			err := fmt.Errorf("mismatch in allocation: NewVector n = %v, len(data[0]) = %v\n", n, len(dataO[0]))
			panic(err)
		}
		v = mat.NewVecDense(n, dataO[0])
	} else {
		v = mat.NewVecDense(n, make([]float64, n))
	}
	R = Vector{v}
	return
}

func NewVectorConstant(n int, val float64) (R Vector) {
	var (
		data = make([]float64, n)
	)
	for i := range data {
		data[i] = val
	}
	R = NewVector(n, data)
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (v Vector) Dims() (r, c int)         { return v.V.Dims() }
func (v Vector) At(i, j int) float64      { return v.V.At(i, j) }
func (v Vector) T() mat.Matrix            { return v.V.T() }
func (v Vector) AtVec(i int) float64      { return v.V.AtVec(i) }
func (v Vector) RawVector() blas64.Vector { return v.V.RawVector() }
func (v Vector) Len() int                 { return v.V.Len() }

func (v Vector) Copy() (R Vector) { // Does not change receiver
	var (
		data  = v.V.RawVector().Data
		dataR = make([]float64, v.Len())
	)
	copy(dataR, data)
	R = NewVector(v.Len(), dataR)
	return
}

// Chainable (extended) methods
func (v Vector) Add(a Vector) Vector { v.V.AddVec(v.V, a.V); return v }
func (v Vector) Sub(a Vector) Vector { v.V.SubVec(v.V, a.V); return v }

func (v Vector) Scale(a float64) Vector {
	var (
		data = v.V.RawVector().Data
	)
	for i := range data {
		data[i] *= a
	}
	return v
}

func (v Vector) Apply(f func(float64) float64) Vector {
	var (
		data = v.V.RawVector().Data
	)
	for i, val := range data {
		data[i] = f(val)
	}
	return v
}

func (v Vector) Dot(a Vector) float64 { return mat.Dot(v.V, a.V) }

// Norm returns the p-norm for p = 1 or 2
func (v Vector) Norm(p float64) float64 { return mat.Norm(v.V, p) }

// RMS is the root mean square of the element-wise difference from a
func (v Vector) RMS(a Vector) (rms float64) {
	var (
		n = v.Len()
	)
	if n != a.Len() {
		panic(fmt.Errorf("length mismatch in RMS: %d != %d", n, a.Len()))
	}
	for i := 0; i < n; i++ {
		d := v.AtVec(i) - a.AtVec(i)
		rms += d * d
	}
	rms = math.Sqrt(rms / float64(n))
	return
}

func (v Vector) SliceIndex(I Index) (R Vector) { // Does not change receiver
	var (
		n     = v.Len()
		dataR = make([]float64, len(I))
	)
	for i, ind := range I {
		if ind < 0 || ind > n-1 {
			panic(fmt.Errorf("unable to subset vector, index %d out of bounds [0,%d]", ind, n-1))
		}
		dataR[i] = v.AtVec(ind)
	}
	R = NewVector(len(I), dataR)
	return
}

func (v Vector) Min() (min float64) {
	var (
		data = v.V.RawVector().Data
	)
	min = data[0]
	for _, val := range data {
		if val < min {
			min = val
		}
	}
	return
}

func (v Vector) Max() (max float64) {
	var (
		data = v.V.RawVector().Data
	)
	max = data[0]
	for _, val := range data {
		if val > max {
			max = val
		}
	}
	return
}

// HasNaNOrInf reports whether any element is not finite
func (v Vector) HasNaNOrInf() bool {
	for _, val := range v.V.RawVector().Data {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return true
		}
	}
	return false
}
