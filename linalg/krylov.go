package linalg

// KrylovSolver solves Op x = b approximately, returning the iteration
// count used. It never fails on non-convergence: it always returns the
// best iterate reached in x and lets the caller (a pseudo-time driver)
// decide whether IterationCap applies.
type KrylovSolver interface {
	// Solve solves op*x = b to relative residual tol or maxit iterations,
	// whichever comes first, starting from the current contents of x
	// (the caller is responsible for zeroing x first if a zero initial
	// guess is wanted). cancel, if non-nil, is checked once per iteration
	// and aborts the solve early on close.
	Solve(op Operator, prec Preconditioner, b, x *BlockVector, tol float64, maxit int, cancel <-chan struct{}) (itersUsed int, err error)
}

func residual(op Operator, b, x, r *BlockVector) error {
	if err := op.Apply(x, r); err != nil {
		return err
	}
	for i := range r.Data {
		r.Data[i] = b.Data[i] - r.Data[i]
	}
	return nil
}

func cancelled(cancel <-chan struct{}) bool {
	if cancel == nil {
		return false
	}
	select {
	case <-cancel:
		return true
	default:
		return false
	}
}

var (
	_ KrylovSolver = (*Richardson)(nil)
	_ KrylovSolver = (*BiCGStab)(nil)
	_ KrylovSolver = (*GMRES)(nil)
)
