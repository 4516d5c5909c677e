package linalg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fvens-go/fvcore/types"
)

func TestNewKrylovSolverDispatch(t *testing.T) {
	s, err := NewKrylovSolver(types.SolverRichardson, 4, 1, 0)
	require.NoError(t, err)
	_, ok := s.(*Richardson)
	assert.True(t, ok)

	s, err = NewKrylovSolver(types.SolverBCGSTB, 4, 1, 0)
	require.NoError(t, err)
	_, ok = s.(*BiCGStab)
	assert.True(t, ok)

	s, err = NewKrylovSolver(types.SolverGMRES, 4, 1, 5)
	require.NoError(t, err)
	_, ok = s.(*GMRES)
	assert.True(t, ok)

	s, err = NewKrylovSolver("", 4, 1, 0)
	require.NoError(t, err)
	_, ok = s.(*Richardson)
	assert.True(t, ok)
}

func TestNewKrylovSolverGMRESRequiresRestartVecs(t *testing.T) {
	_, err := NewKrylovSolver(types.SolverGMRES, 4, 1, 0)
	require.Error(t, err)
	var cfgErr *types.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNewKrylovSolverUnknownToken(t *testing.T) {
	_, err := NewKrylovSolver(types.LinearSolver("bogus"), 4, 1, 0)
	require.Error(t, err)
	var cfgErr *types.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNewPreconditionerDispatch(t *testing.T) {
	p, err := NewPreconditioner(types.PrecJ)
	require.NoError(t, err)
	_, ok := p.(*JacobiPreconditioner)
	assert.True(t, ok)

	p, err = NewPreconditioner(types.PrecSGS)
	require.NoError(t, err)
	_, ok = p.(*SGSPreconditioner)
	assert.True(t, ok)

	p, err = NewPreconditioner(types.PrecILU0)
	require.NoError(t, err)
	_, ok = p.(*ILU0Preconditioner)
	assert.True(t, ok)

	p, err = NewPreconditioner("")
	require.NoError(t, err)
	_, ok = p.(NoOpPreconditioner)
	assert.True(t, ok)
}

func TestNewPreconditionerUnknownToken(t *testing.T) {
	_, err := NewPreconditioner(types.Preconditioner("bogus"))
	require.Error(t, err)
	var cfgErr *types.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
