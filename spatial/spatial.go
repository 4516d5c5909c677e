// Package spatial declares the narrow, consumed interfaces this module's
// pseudo-time drivers depend on but never implement: mesh topology and the
// spatial residual/Jacobian operator. Mesh reading, flux functions and
// spatial discretization are external collaborators.
package spatial

import "github.com/fvens-go/fvcore/linalg"

// Mesh supplies the cell count and per-cell area a pseudo-time driver
// needs; it is immutable for the duration of a solve.
type Mesh interface {
	NCells() int
	Area(i int) float64
}

// Spatial evaluates the spatial residual (and, for implicit drivers, its
// Jacobian) at a given state. It is borrowed by the driver for the
// duration of solve and never owned.
type Spatial interface {
	Mesh() Mesh

	// ComputeResidual sets R[i,:] to the spatial divergence at cell i. If
	// wantDt is true it also fills dt[i] with a stable local pseudo-time
	// step; dt may be left untouched otherwise.
	ComputeResidual(u *linalg.BlockVector, r *linalg.BlockVector, wantDt bool, dt []float64) error

	// ComputeJacobian fills/overwrites the block entries of m at the
	// current state u. No allocation of new nonzero positions is
	// permitted once m's pattern has been frozen.
	ComputeJacobian(u *linalg.BlockVector, m *linalg.BlockCSR) error
}
