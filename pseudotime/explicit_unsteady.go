package pseudotime

import (
	"github.com/fvens-go/fvcore/linalg"
	"github.com/fvens-go/fvcore/spatial"
	"github.com/fvens-go/fvcore/types"
	"github.com/fvens-go/fvcore/utils"
)

// epsSmallNumber guards the terminal-time comparison against floating
// point drift, matching aodesolver.cpp's A_SMALL_NUMBER.
const epsSmallNumber = 1e-10

// ExplicitUnsteady advances U through physical time with a TVD-RK(1/2/3)
// global-time-step integrator, following aodesolver.cpp's TVDRKSolver.
type ExplicitUnsteady struct {
	sp    spatial.Spatial
	order int
	cfl   float64
	coeffs [][3]float64

	r      *linalg.BlockVector
	uStage *linalg.BlockVector
	dt     []float64
	pm     *utils.PartitionMap
}

// NewExplicitUnsteady constructs the driver. order must be 1, 2 or 3;
// any other value fails immediately with ConfigError rather than at the
// first Solve call.
func NewExplicitUnsteady(sp spatial.Spatial, v, order int, cfl float64, parallelDegree int) (*ExplicitUnsteady, error) {
	coeffs, err := tvdRKCoefficients(order)
	if err != nil {
		return nil, err
	}
	n := sp.Mesh().NCells()
	return &ExplicitUnsteady{
		sp: sp, order: order, cfl: cfl, coeffs: coeffs,
		r:      linalg.NewBlockVector(n, v),
		uStage: linalg.NewBlockVector(n, v),
		dt:     make([]float64, n),
		pm:     utils.NewPartitionMap(parallelDegree, n),
	}, nil
}

// Solve advances u from its current state to finaltime in place.
func (d *ExplicitUnsteady) Solve(u *linalg.BlockVector, finaltime float64) types.Status {
	mesh := d.sp.Mesh()
	v := u.V
	time := 0.0
	steps := 0

	for time <= finaltime-epsSmallNumber {
		d.uStage.CopyFrom(u)
		var dtMin float64

		for stage, c := range d.coeffs {
			d.r.SetZero()
			// The residual is always evaluated at the current stage
			// state, not the physical-time-step state u: d.uStage holds
			// u itself only before stage 0 runs.
			if err := d.sp.ComputeResidual(d.uStage, d.r, stage == 0, d.dt); err != nil {
				return types.Status{Code: types.Failed, Iterations: steps, Err: err}
			}
			if stage == 0 {
				dtMin = d.pm.ParallelReduceMin(func(lo, hi int) float64 {
					m := d.dt[lo]
					for i := lo + 1; i < hi; i++ {
						if d.dt[i] < m {
							m = d.dt[i]
						}
					}
					return m
				})
			}

			alpha, beta, gamma := c[0], c[1], c[2]
			d.pm.ParallelFor(func(lo, hi int) {
				for i := lo; i < hi; i++ {
					area := mesh.Area(i)
					ui, usi, ri := u.Row(i), d.uStage.Row(i), d.r.Row(i)
					scale := gamma * dtMin * d.cfl / area
					for k := 0; k < v; k++ {
						usi[k] = alpha*ui[k] + beta*usi[k] - scale*ri[k]
					}
				}
			})
		}

		u.CopyFrom(d.uStage)
		time += dtMin
		steps++
	}

	return types.Status{Code: types.Converged, Iterations: steps}
}
