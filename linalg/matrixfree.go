package linalg

// ResidualFunc evaluates the spatial residual at u into r, mirroring
// spatial.Spatial.ComputeResidual's (u, r) shape without linalg needing to
// import package spatial (which itself depends on linalg's BlockVector and
// BlockCSR types).
type ResidualFunc func(u, r *BlockVector) error

// MatrixFreeOperator approximates Jv by finite-differencing the spatial
// residual, the legacy path described in alinalg.hpp's
// MatrixFreeIterativeSolver: (R(U + eps*v) - R(U)) / eps. It trades an
// assembled Jacobian for one extra residual evaluation per Apply, and can
// only be paired with a preconditioner that does not require the
// assembled matrix (None or a diagonal approximation supplied
// separately).
type MatrixFreeOperator struct {
	Residual ResidualFunc
	U        *BlockVector // current state, held fixed across Apply calls
	R0       *BlockVector // Residual(U), precomputed once per outer step
	Eps      float64

	work1, work2 *BlockVector
}

// NewMatrixFreeOperator stores the caller-computed r0 = R(U) and allocates
// scratch space. U and r0 are referenced, not copied; the caller must not
// mutate U between Apply calls within the same Krylov solve.
func NewMatrixFreeOperator(residual ResidualFunc, u, r0 *BlockVector, eps float64) *MatrixFreeOperator {
	return &MatrixFreeOperator{
		Residual: residual,
		U:        u,
		R0:       r0,
		Eps:      eps,
		work1:    NewBlockVector(u.N, u.V),
		work2:    NewBlockVector(u.N, u.V),
	}
}

// Apply computes y <- (R(U + eps*v) - R(U)) / eps.
func (op *MatrixFreeOperator) Apply(v, y *BlockVector) error {
	op.work1.CopyFrom(op.U)
	op.work1.AXPY(op.Eps, v)
	if err := op.Residual(op.work1, op.work2); err != nil {
		return err
	}
	inveps := 1 / op.Eps
	for i := range y.Data {
		y.Data[i] = (op.work2.Data[i] - op.R0.Data[i]) * inveps
	}
	return nil
}

var _ Operator = (*MatrixFreeOperator)(nil)
