package linalg

import "github.com/fvens-go/fvcore/types"

// NewKrylovSolver selects a KrylovSolver implementation by token, the Go
// equivalent of aodesolver.cpp's SteadyBackwardEulerSolver constructor
// string switch ("BCGSTB"/"GMRES"/else Richardson).
func NewKrylovSolver(token types.LinearSolver, n, v, restartVecs int) (KrylovSolver, error) {
	switch token {
	case types.SolverBCGSTB:
		return NewBiCGStab(n, v), nil
	case types.SolverGMRES:
		if restartVecs <= 0 {
			return nil, &types.ConfigError{Field: "restart_vecs", Value: "", Msg: "must be positive for GMRES"}
		}
		return NewGMRES(n, v, restartVecs), nil
	case types.SolverRichardson, "":
		return NewRichardson(n, v), nil
	default:
		return nil, &types.ConfigError{Field: "linearsolver", Value: string(token), Msg: "unrecognized linear solver token"}
	}
}

// NewPreconditioner selects a Preconditioner implementation by token, the
// Go equivalent of aodesolver.cpp's preconditioner string switch
// ("J"/"SGS"/"ILU0"/else NoPrec).
func NewPreconditioner(token types.Preconditioner) (Preconditioner, error) {
	switch token {
	case types.PrecJ:
		return &JacobiPreconditioner{}, nil
	case types.PrecSGS:
		return &SGSPreconditioner{}, nil
	case types.PrecILU0:
		return &ILU0Preconditioner{}, nil
	case types.PrecNone, "":
		return NoOpPreconditioner{}, nil
	default:
		return nil, &types.ConfigError{Field: "preconditioner", Value: string(token), Msg: "unrecognized preconditioner token"}
	}
}
