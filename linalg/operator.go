package linalg

// Operator is the linear operator a KrylovSolver applies against: either
// an assembled BlockCSR or the matrix-free finite-difference
// approximation of matrixfree.go. Both expose the same Apply shape so the
// Krylov methods never need to know which backs them.
type Operator interface {
	Apply(x, y *BlockVector) error
}

var _ Operator = (*BlockCSR)(nil)
