package utils

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

type Matrix struct {
	M *mat.Dense
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v\n", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{m}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int)          { return m.M.Dims() }
func (m Matrix) At(i, j int) float64       { return m.M.At(i, j) }
func (m Matrix) T() mat.Matrix             { return m.M.T() }
func (m Matrix) RawMatrix() blas64.General { return m.M.RawMatrix() }

func (m Matrix) IsEmpty() bool { return m.M == nil }

func (m Matrix) Copy() (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
		data   = m.M.RawMatrix().Data
		dataR  = make([]float64, nr*nc)
	)
	copy(dataR, data)
	R = NewMatrix(nr, nc, dataR)
	return
}

func (m Matrix) Transpose() (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nc, nr)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			R.M.Set(j, i, m.M.At(i, j))
		}
	}
	return
}

func (m Matrix) Mul(A Matrix) (R Matrix) { // Does not change receiver
	var (
		nrM, _ = m.M.Dims()
		_, ncA = A.M.Dims()
	)
	R = NewMatrix(nrM, ncA)
	R.M.Mul(m.M, A.M)
	return
}

// MulVec right-multiplies by a column vector: R = m * v
func (m Matrix) MulVec(v Vector) (R Vector) { // Does not change receiver
	var (
		nr, nc = m.Dims()
	)
	if nc != v.Len() {
		panic(fmt.Errorf("dimension mismatch in MulVec: nc = %d, v.Len() = %d", nc, v.Len()))
	}
	R = NewVector(nr)
	R.V.MulVec(m.M, v.V)
	return
}

// Row returns a copy of row i as a Vector
func (m Matrix) Row(i int) (R Vector) {
	var (
		_, nc = m.Dims()
		dataR = make([]float64, nc)
	)
	copy(dataR, m.M.RawRowView(i))
	R = NewVector(nc, dataR)
	return
}

// Col returns a copy of column j as a Vector
func (m Matrix) Col(j int) (R Vector) {
	var (
		nr, _ = m.Dims()
		dataR = make([]float64, nr)
	)
	for i := 0; i < nr; i++ {
		dataR[i] = m.M.At(i, j)
	}
	R = NewVector(nr, dataR)
	return
}

func (m Matrix) SetRow(i int, data []float64) Matrix {
	m.M.SetRow(i, data)
	return m
}

// SliceRows returns the subset of rows listed in I, in the order of I
func (m Matrix) SliceRows(I Index) (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(len(I), nc)
	for i, ind := range I {
		if ind < 0 || ind > nr-1 {
			panic(fmt.Errorf("unable to subset row from matrix, index %d out of bounds [0,%d]", ind, nr-1))
		}
		R.M.SetRow(i, m.M.RawRowView(ind))
	}
	return
}

// SliceCols returns the subset of columns listed in I, in the order of I
func (m Matrix) SliceCols(I Index) (R Matrix) { // Does not change receiver
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nr, len(I))
	for j, ind := range I {
		if ind < 0 || ind > nc-1 {
			panic(fmt.Errorf("unable to subset column from matrix, index %d out of bounds [0,%d]", ind, nc-1))
		}
		for i := 0; i < nr; i++ {
			R.M.Set(i, j, m.M.At(i, ind))
		}
	}
	return
}

// HStack appends the columns of A to the right of m
func (m Matrix) HStack(A Matrix) (R Matrix) { // Does not change receiver
	var (
		nr, nc   = m.Dims()
		nrA, ncA = A.Dims()
	)
	if nr != nrA {
		panic(fmt.Errorf("row count mismatch in HStack: %d != %d", nr, nrA))
	}
	R = NewMatrix(nr, nc+ncA)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			R.M.Set(i, j, m.M.At(i, j))
		}
		for j := 0; j < ncA; j++ {
			R.M.Set(i, nc+j, A.M.At(i, j))
		}
	}
	return
}

// StackVector appends v as the rightmost column of m
func (m Matrix) StackVector(v Vector) (R Matrix) { // Does not change receiver
	var (
		nr, _ = m.Dims()
	)
	if nr != v.Len() {
		panic(fmt.Errorf("row count mismatch in StackVector: %d != %d", nr, v.Len()))
	}
	R = m.HStack(NewMatrix(v.Len(), 1, append([]float64{}, v.RawVector().Data...)))
	return
}

func (m Matrix) Max() (max float64) {
	var (
		data = m.M.RawMatrix().Data
	)
	max = data[0]
	for _, val := range data {
		if val > max {
			max = val
		}
	}
	return
}

func (m Matrix) Min() (min float64) {
	var (
		data = m.M.RawMatrix().Data
	)
	min = data[0]
	for _, val := range data {
		if val < min {
			min = val
		}
	}
	return
}
