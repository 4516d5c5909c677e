package types

// Preconditioner names the block preconditioner a SolverConfig selects,
// mirroring aodesolver.cpp's string switch ("J"/"SGS"/"ILU0"/else) but as
// a validated Go enum instead of a bare string compared ad hoc.
type Preconditioner string

const (
	PrecNone Preconditioner = "None"
	PrecJ    Preconditioner = "J"
	PrecSGS  Preconditioner = "SGS"
	PrecILU0 Preconditioner = "ILU0"
)

// Valid reports whether p is one of the recognized preconditioner tokens.
func (p Preconditioner) Valid() bool {
	switch p {
	case PrecNone, PrecJ, PrecSGS, PrecILU0:
		return true
	}
	return false
}

// LinearSolver names the Krylov method a SolverConfig selects, mirroring
// aodesolver.cpp's string switch ("BCGSTB"/"GMRES"/else Richardson).
type LinearSolver string

const (
	SolverRichardson LinearSolver = "Richardson"
	SolverBCGSTB     LinearSolver = "BCGSTB"
	SolverGMRES      LinearSolver = "GMRES"
)

// Valid reports whether s is one of the recognized linear-solver tokens.
func (s LinearSolver) Valid() bool {
	switch s {
	case SolverRichardson, SolverBCGSTB, SolverGMRES:
		return true
	}
	return false
}
