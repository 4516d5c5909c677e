package linalg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fvens-go/fvcore/types"
	"github.com/fvens-go/fvcore/utils"
)

func newTestTridiag(n int) *BlockCSR {
	m := NewBlockCSR(n, 1)
	for i := 0; i < n; i++ {
		m.SetBlock(i, i, utils.NewMatrix(1, 1, []float64{2}))
		if i > 0 {
			m.SetBlock(i, i-1, utils.NewMatrix(1, 1, []float64{-1}))
		}
		if i < n-1 {
			m.SetBlock(i, i+1, utils.NewMatrix(1, 1, []float64{-1}))
		}
	}
	m.FreezePattern()
	return m
}

func TestBlockCSRApplyLinearity(t *testing.T) {
	m := newTestTridiag(5)
	x := NewBlockVector(5, 1)
	y := NewBlockVector(5, 1)
	for i := range x.Data {
		x.Data[i] = float64(i + 1)
		y.Data[i] = float64(2*i - 1)
	}
	alpha, beta := 1.7, -0.3

	combo := NewBlockVector(5, 1)
	combo.CopyFrom(x)
	combo.Scale(alpha)
	combo.AXPY(beta, y)

	lhs := NewBlockVector(5, 1)
	require.NoError(t, m.Apply(combo, lhs))

	ax := NewBlockVector(5, 1)
	ay := NewBlockVector(5, 1)
	require.NoError(t, m.Apply(x, ax))
	require.NoError(t, m.Apply(y, ay))
	rhs := NewBlockVector(5, 1)
	rhs.CopyFrom(ax)
	rhs.Scale(alpha)
	rhs.AXPY(beta, ay)

	for i := range lhs.Data {
		assert.InDelta(t, rhs.Data[i], lhs.Data[i], 1e-9)
	}
}

func TestBlockCSRFreezeReassemblePreservesNNZ(t *testing.T) {
	m := newTestTridiag(6)
	before := m.NNZ()
	m.SetAllZero()
	for i := 0; i < 6; i++ {
		m.SetBlock(i, i, utils.NewMatrix(1, 1, []float64{3}))
	}
	assert.Equal(t, before, m.NNZ())
}

func TestBlockCSRSetBlockOnMissingSlotAfterFreezeFails(t *testing.T) {
	m := newTestTridiag(4)
	err := m.SetBlock(0, 3, utils.NewMatrix(1, 1, []float64{9}))
	require.Error(t, err)
	var structural *types.Structural
	assert.ErrorAs(t, err, &structural)
}

func TestBlockCSRDiagonalInverseApply(t *testing.T) {
	m := NewBlockCSR(3, 1)
	for i := 0; i < 3; i++ {
		m.SetBlock(i, i, utils.NewMatrix(1, 1, []float64{float64(i + 2)}))
	}
	m.FreezePattern()

	x := NewBlockVector(3, 1)
	for i := range x.Data {
		x.Data[i] = float64(i + 1)
	}
	y := NewBlockVector(3, 1)
	require.NoError(t, m.DiagonalInverseApply(x, y))
	for i := 0; i < 3; i++ {
		assert.InDelta(t, float64(i+1)/float64(i+2), y.Data[i], 1e-9)
	}
}

func TestBlockCSRUpdateDiagBlockAccumulates(t *testing.T) {
	m := NewBlockCSR(2, 2)
	m.SetBlock(0, 0, utils.Identity(2))
	m.FreezePattern()
	add := utils.NewMatrix(2, 2, []float64{1, 0, 0, 1})
	require.NoError(t, m.UpdateDiagBlock(0, add))
	diag, ok := m.DiagBlock(0)
	require.True(t, ok)
	assert.Equal(t, 2.0, diag.At(0, 0))
	assert.Equal(t, 2.0, diag.At(1, 1))
}
