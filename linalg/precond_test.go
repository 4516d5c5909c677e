package linalg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fvens-go/fvcore/utils"
)

func denseResidual(t *testing.T, m *BlockCSR, prec Preconditioner, n int) float64 {
	t.Helper()
	r := NewBlockVector(n, 1)
	for i := range r.Data {
		r.Data[i] = float64(i + 1)
	}
	z := NewBlockVector(n, 1)
	require.NoError(t, prec.Apply(r, z))

	// z should satisfy M z ~ r reasonably well for a convergent
	// preconditioner on a diagonally dominant system; exact equality only
	// holds for Jacobi on a diagonal matrix, so this checks relative
	// residual reduction rather than exactness.
	mz := NewBlockVector(n, 1)
	require.NoError(t, m.Apply(z, mz))
	res := 0.0
	for i := range r.Data {
		d := r.Data[i] - mz.Data[i]
		res += d * d
	}
	return res
}

func TestSGSPreconditionerReducesResidual(t *testing.T) {
	n := 10
	m := spdTridiag(n)
	prec := &SGSPreconditioner{}
	require.NoError(t, prec.Setup(m))

	afterSGS := denseResidual(t, m, prec, n)
	afterNoOp := denseResidual(t, m, NoOpPreconditioner{}, n)
	assert.Less(t, afterSGS, afterNoOp)
}

func TestSGSPreconditionerSymmetricOnDiagonalMatrix(t *testing.T) {
	// On a purely diagonal matrix the forward and backward sweeps collapse
	// to the same Jacobi step, so SGS must match Jacobi exactly.
	n := 6
	m := NewBlockCSR(n, 1)
	for i := 0; i < n; i++ {
		m.SetBlock(i, i, utils.NewMatrix(1, 1, []float64{float64(i + 3)}))
	}
	m.FreezePattern()

	sgs := &SGSPreconditioner{}
	require.NoError(t, sgs.Setup(m))
	jac := &JacobiPreconditioner{}
	require.NoError(t, jac.Setup(m))

	r := NewBlockVector(n, 1)
	for i := range r.Data {
		r.Data[i] = float64(i + 1)
	}
	zs, zj := NewBlockVector(n, 1), NewBlockVector(n, 1)
	require.NoError(t, sgs.Apply(r, zs))
	require.NoError(t, jac.Apply(r, zj))
	for i := range zs.Data {
		assert.InDelta(t, zj.Data[i], zs.Data[i], 1e-9)
	}
}

func TestILU0PreconditionerExactOnTriangularMatrix(t *testing.T) {
	// When M is already lower-triangular (no fill above the diagonal),
	// ILU(0) reproduces an exact forward solve with no approximation: its
	// Apply should return the true solution to M z = r.
	n := 4
	m := NewBlockCSR(n, 1)
	for i := 0; i < n; i++ {
		m.SetBlock(i, i, utils.NewMatrix(1, 1, []float64{2}))
		if i > 0 {
			m.SetBlock(i, i-1, utils.NewMatrix(1, 1, []float64{-1}))
		}
	}
	m.FreezePattern()

	prec := &ILU0Preconditioner{}
	require.NoError(t, prec.Setup(m))

	r := NewBlockVector(n, 1)
	for i := range r.Data {
		r.Data[i] = float64(i + 1)
	}
	z := NewBlockVector(n, 1)
	require.NoError(t, prec.Apply(r, z))

	mz := NewBlockVector(n, 1)
	require.NoError(t, m.Apply(z, mz))
	for i := range mz.Data {
		assert.InDelta(t, r.Data[i], mz.Data[i], 1e-9)
	}
}

func TestILU0PreconditionerSetupFailsOnMissingDiagonal(t *testing.T) {
	m := NewBlockCSR(2, 1)
	m.SetBlock(0, 1, utils.NewMatrix(1, 1, []float64{1}))
	m.SetBlock(1, 0, utils.NewMatrix(1, 1, []float64{1}))
	m.FreezePattern()

	prec := &ILU0Preconditioner{}
	err := prec.Setup(m)
	require.Error(t, err)
}
