package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fvens-go/fvcore/types"
)

func TestParseValidYAML(t *testing.T) {
	data := []byte(`
tol: 1e-8
maxiter: 500
cflinit: 1.0
cflfin: 100.0
rampstart: 5
rampend: 50
lintol: 1e-6
linmaxiterstart: 10
linmaxiterend: 100
restart_vecs: 20
preconditioner: SGS
linearsolver: GMRES
lognres: true
logfile: run1
`)
	var sc SolverConfig
	require.NoError(t, sc.Parse(data))
	assert.Equal(t, types.PrecSGS, sc.Preconditioner)
	assert.Equal(t, types.SolverGMRES, sc.LinearSolver)
	assert.Equal(t, 500, sc.MaxIter)
	assert.Equal(t, 20, sc.RestartVecs)
}

func TestParseDefaultsEmptyTokens(t *testing.T) {
	data := []byte(`
maxiter: 10
`)
	var sc SolverConfig
	require.NoError(t, sc.Parse(data))
	assert.Equal(t, types.PrecNone, sc.Preconditioner)
	assert.Equal(t, types.SolverRichardson, sc.LinearSolver)
}

func TestValidateRejectsUnknownPreconditioner(t *testing.T) {
	sc := &SolverConfig{MaxIter: 1, Preconditioner: "bogus"}
	err := sc.Validate()
	require.Error(t, err)
	var cfgErr *types.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestValidateRejectsUnknownLinearSolver(t *testing.T) {
	sc := &SolverConfig{MaxIter: 1, LinearSolver: "bogus"}
	err := sc.Validate()
	require.Error(t, err)
	var cfgErr *types.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestValidateRejectsGMRESWithoutRestartVecs(t *testing.T) {
	sc := &SolverConfig{MaxIter: 1, LinearSolver: types.SolverGMRES, RestartVecs: 0}
	err := sc.Validate()
	require.Error(t, err)
	var cfgErr *types.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestValidateRejectsNonPositiveMaxIter(t *testing.T) {
	sc := &SolverConfig{MaxIter: 0}
	err := sc.Validate()
	require.Error(t, err)
	var cfgErr *types.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRampedCFLAndLinMaxIterBranches(t *testing.T) {
	sc := &SolverConfig{
		CFLInit: 1, CFLFin: 101, RampStart: 10, RampEnd: 20,
		LinMaxIterStart: 5, LinMaxIterEnd: 25,
	}

	cfl, lin := sc.RampedCFLAndLinMaxIter(0)
	assert.Equal(t, 1.0, cfl)
	assert.Equal(t, 5, lin)

	cfl, lin = sc.RampedCFLAndLinMaxIter(25)
	assert.Equal(t, 101.0, cfl)
	assert.Equal(t, 25, lin)

	cfl, lin = sc.RampedCFLAndLinMaxIter(15)
	assert.InDelta(t, 51.0, cfl, 1e-9)
	assert.Equal(t, 15, lin)
}

func TestRampedCFLAndLinMaxIterDegenerateRampFallsBackToFinal(t *testing.T) {
	sc := &SolverConfig{CFLInit: 1, CFLFin: 99, RampStart: 10, RampEnd: 10, LinMaxIterStart: 5, LinMaxIterEnd: 40}
	cfl, lin := sc.RampedCFLAndLinMaxIter(0)
	assert.Equal(t, 99.0, cfl)
	assert.Equal(t, 40, lin)
}
