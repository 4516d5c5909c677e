// Package utils holds the dense, block-local linear algebra and the
// data-parallel primitive shared by the linalg and pseudotime packages.
package utils

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"
)

// Matrix wraps gonum's dense matrix with the chainable, row-major-friendly
// API the rest of this module is written against.
type Matrix struct {
	M *mat.Dense
}

// NewMatrix allocates an nr x nc matrix, optionally bound to existing
// row-major data.
func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			panic(fmt.Errorf("NewMatrix: nr,nc = %d,%d but len(data) = %d", nr, nc, len(dataO[0])))
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	return Matrix{M: m}
}

func (m Matrix) Dims() (r, c int)          { return m.M.Dims() }
func (m Matrix) At(i, j int) float64       { return m.M.At(i, j) }
func (m Matrix) Set(i, j int, v float64)   { m.M.Set(i, j, v) }
func (m Matrix) RawMatrix() blas64.General { return m.M.RawMatrix() }
func (m Matrix) Data() []float64           { return m.M.RawMatrix().Data }

func (m Matrix) Copy() (R Matrix) {
	nr, nc := m.Dims()
	R = NewMatrix(nr, nc)
	R.M.Copy(m.M)
	return
}

func (m Matrix) Transpose() (R Matrix) {
	nr, nc := m.Dims()
	R = NewMatrix(nc, nr)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			R.Set(j, i, m.At(i, j))
		}
	}
	return
}

func (m Matrix) Mul(A Matrix) (R Matrix) {
	nr, _ := m.Dims()
	_, nc := A.Dims()
	R = NewMatrix(nr, nc)
	R.M.Mul(m.M, A.M)
	return
}

// Add returns m+A without mutating either operand.
func (m Matrix) Add(A Matrix) (R Matrix) {
	nr, nc := m.Dims()
	R = NewMatrix(nr, nc)
	R.M.Add(m.M, A.M)
	return
}

// Subtract returns m-A without mutating either operand.
func (m Matrix) Subtract(A Matrix) (R Matrix) {
	nr, nc := m.Dims()
	R = NewMatrix(nr, nc)
	R.M.Sub(m.M, A.M)
	return
}

// AddInPlace adds A into m in place, the pattern used to augment Jacobian
// diagonal blocks with a pseudo-time term.
func (m Matrix) AddInPlace(A Matrix) {
	md, ad := m.Data(), A.Data()
	for i, v := range ad {
		md[i] += v
	}
}

func (m Matrix) Scale(a float64) {
	d := m.Data()
	for i := range d {
		d[i] *= a
	}
}

func (m Matrix) SetZero() {
	d := m.Data()
	for i := range d {
		d[i] = 0
	}
}

// Inverse factors m via LU (lapack64.Getrf/Getri) and returns the inverse.
// A singular pivot is reported through ok=false rather than panicking, so
// callers (ILU(0) setup) can translate it into a types.Numerical error.
func (m Matrix) Inverse() (R Matrix, ok bool) {
	nr, nc := m.Dims()
	R = m.Copy()
	ipiv := make([]int, nr)
	if !lapack64.Getrf(R.RawMatrix(), ipiv) {
		return R, false
	}
	work := make([]float64, nr*nc)
	if !lapack64.Getri(R.RawMatrix(), ipiv, work, nr*nc) {
		return R, false
	}
	return R, true
}

// Identity returns the n x n identity matrix.
func Identity(n int) (R Matrix) {
	R = NewMatrix(n, n)
	for i := 0; i < n; i++ {
		R.Set(i, i, 1)
	}
	return
}
