// Package config parses and validates the solver's YAML configuration
// surface, following InputParameters's Parse/Print shape.
package config

import (
	"fmt"

	"github.com/ghodss/yaml"

	"github.com/fvens-go/fvcore/types"
)

// SolverConfig is the full enumerated set of options a pseudo-time driver
// and its Krylov inner solve accept.
type SolverConfig struct {
	Tol             float64             `json:"tol"`
	MaxIter         int                 `json:"maxiter"`
	CFLInit         float64             `json:"cflinit"`
	CFLFin          float64             `json:"cflfin"`
	RampStart       int                 `json:"rampstart"`
	RampEnd         int                 `json:"rampend"`
	LinTol          float64             `json:"lintol"`
	LinMaxIterStart int                 `json:"linmaxiterstart"`
	LinMaxIterEnd   int                 `json:"linmaxiterend"`
	RestartVecs     int                 `json:"restart_vecs"`
	Preconditioner  types.Preconditioner `json:"preconditioner"`
	LinearSolver    types.LinearSolver   `json:"linearsolver"`
	LogNRes         bool                `json:"lognres"`
	LogFile         string              `json:"logfile"`
}

// Parse unmarshals YAML bytes into sc and runs Validate on the result.
// ghodss/yaml converts the YAML to JSON first, so the struct's json tags
// name the accepted keys.
func (sc *SolverConfig) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, sc); err != nil {
		return err
	}
	return sc.Validate()
}

// Validate checks enum tokens and structural invariants not expressible in
// the YAML schema itself.
func (sc *SolverConfig) Validate() error {
	if sc.Preconditioner == "" {
		sc.Preconditioner = types.PrecNone
	}
	if !sc.Preconditioner.Valid() {
		return &types.ConfigError{Field: "preconditioner", Value: string(sc.Preconditioner), Msg: "must be one of None, J, SGS, ILU0"}
	}
	if sc.LinearSolver == "" {
		sc.LinearSolver = types.SolverRichardson
	}
	if !sc.LinearSolver.Valid() {
		return &types.ConfigError{Field: "linearsolver", Value: string(sc.LinearSolver), Msg: "must be one of Richardson, BCGSTB, GMRES"}
	}
	if sc.LinearSolver == types.SolverGMRES && sc.RestartVecs <= 0 {
		return &types.ConfigError{Field: "restart_vecs", Value: fmt.Sprint(sc.RestartVecs), Msg: "must be positive when linearsolver is GMRES"}
	}
	if sc.MaxIter <= 0 {
		return &types.ConfigError{Field: "maxiter", Value: fmt.Sprint(sc.MaxIter), Msg: "must be positive"}
	}
	return nil
}

// Print writes a human-readable summary of sc to stdout, matching the
// plain fmt.Printf reporting style used throughout this module.
func (sc *SolverConfig) Print() {
	fmt.Printf("%8.2e\t\t= tol\n", sc.Tol)
	fmt.Printf("%8d\t\t= maxiter\n", sc.MaxIter)
	fmt.Printf("%8.4f\t\t= cflinit\n", sc.CFLInit)
	fmt.Printf("%8.4f\t\t= cflfin\n", sc.CFLFin)
	fmt.Printf("%8d\t\t= rampstart\n", sc.RampStart)
	fmt.Printf("%8d\t\t= rampend\n", sc.RampEnd)
	fmt.Printf("%8.2e\t\t= lintol\n", sc.LinTol)
	fmt.Printf("%8d\t\t= linmaxiterstart\n", sc.LinMaxIterStart)
	fmt.Printf("%8d\t\t= linmaxiterend\n", sc.LinMaxIterEnd)
	fmt.Printf("%8d\t\t= restart_vecs\n", sc.RestartVecs)
	fmt.Printf("[%s]\t\t\t= preconditioner\n", sc.Preconditioner)
	fmt.Printf("[%s]\t\t\t= linearsolver\n", sc.LinearSolver)
	fmt.Printf("%8v\t\t= lognres\n", sc.LogNRes)
	fmt.Printf("\"%s\"\t\t= logfile\n", sc.LogFile)
}

// RampedCFLAndLinMaxIter computes the ramped (CFL, linmaxiter) pair for
// outer-step step, following aodesolver.cpp's three-branch ramp with the
// degenerate rampend<=rampstart case falling back to the final values.
func (sc *SolverConfig) RampedCFLAndLinMaxIter(step int) (cfl float64, linmaxit int) {
	if sc.RampEnd <= sc.RampStart {
		return sc.CFLFin, sc.LinMaxIterEnd
	}
	switch {
	case step < sc.RampStart:
		return sc.CFLInit, sc.LinMaxIterStart
	case step >= sc.RampEnd:
		return sc.CFLFin, sc.LinMaxIterEnd
	default:
		frac := float64(step-sc.RampStart) / float64(sc.RampEnd-sc.RampStart)
		cfl = sc.CFLInit + frac*(sc.CFLFin-sc.CFLInit)
		linmaxit = sc.LinMaxIterStart + int(frac*float64(sc.LinMaxIterEnd-sc.LinMaxIterStart))
		return cfl, linmaxit
	}
}
