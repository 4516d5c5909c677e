package pseudotime

import (
	"fmt"
	"math"
	"os"

	"github.com/fvens-go/fvcore/linalg"
	"github.com/fvens-go/fvcore/spatial"
	"github.com/fvens-go/fvcore/types"
	"github.com/fvens-go/fvcore/utils"
)

// ExplicitSteady relaxes U to steady state with forward-Euler local
// time-stepping, following aodesolver.cpp's SteadyForwardEulerSolver.
// Unlike ImplicitSteady it never ramps its CFL: cflinit is used for every
// step, preserved exactly per the lineage's original behavior.
type ExplicitSteady struct {
	sp      spatial.Spatial
	cflinit float64
	tol     float64
	maxiter int
	lognres bool
	logfile string

	r  *linalg.BlockVector
	dt []float64
	pm *utils.PartitionMap
}

// NewExplicitSteady allocates the driver's working storage sized to sp's
// mesh. parallelDegree selects how many goroutines ParallelFor fans out
// to; callers typically pass runtime.GOMAXPROCS(0).
func NewExplicitSteady(sp spatial.Spatial, v int, cflinit, tol float64, maxiter int, lognres bool, logfile string, parallelDegree int) *ExplicitSteady {
	n := sp.Mesh().NCells()
	return &ExplicitSteady{
		sp:      sp,
		cflinit: cflinit,
		tol:     tol,
		maxiter: maxiter,
		lognres: lognres,
		logfile: logfile,
		r:       linalg.NewBlockVector(n, v),
		dt:      make([]float64, n),
		pm:      utils.NewPartitionMap(parallelDegree, n),
	}
}

// Solve relaxes u toward steady state in place, returning a concrete
// Status rather than the void early-return the legacy solver used.
func (d *ExplicitSteady) Solve(u *linalg.BlockVector) types.Status {
	mesh := d.sp.Mesh()
	v := u.V
	var convFile *os.File
	if d.lognres && d.logfile != "" {
		f, err := os.OpenFile(d.logfile+".conv", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			convFile = f
			defer convFile.Close()
		}
	}

	var initres float64
	step := 0
	for ; step < d.maxiter; step++ {
		d.r.SetZero()
		if err := d.sp.ComputeResidual(u, d.r, true, d.dt); err != nil {
			return types.Status{Code: types.Failed, Iterations: step, Err: err}
		}

		d.pm.ParallelFor(func(lo, hi int) {
			for i := lo; i < hi; i++ {
				area := mesh.Area(i)
				ui, ri := u.Row(i), d.r.Row(i)
				scale := d.cflinit * d.dt[i] / area
				for k := 0; k < v; k++ {
					ui[k] -= scale * ri[k]
				}
			}
		})

		errMass := d.pm.ParallelReduceSum(func(lo, hi int) float64 {
			var s float64
			for i := lo; i < hi; i++ {
				rn := d.r.Row(i)[v-1]
				s += rn * rn * mesh.Area(i)
			}
			return s
		})
		resi := math.Sqrt(errMass)
		if step == 0 {
			initres = resi
		}

		if convFile != nil {
			ratio := 0.0
			if initres != 0 {
				ratio = resi / initres
			}
			fmt.Fprintf(convFile, "%d %g\n", step, ratio)
		}
		if step%50 == 0 {
			fmt.Printf("step %d: residual %g, rel %g\n", step, resi, safeRatio(resi, initres))
		}

		// initres == 0 means R(U) was already zero at step 0: U is a fixed
		// point and there is nothing to relax, so treat it as converged
		// rather than falling through to the maxiter branch below.
		if initres == 0 || resi/initres <= d.tol {
			return types.Status{Code: types.Converged, Iterations: step + 1, FinalResNorm: resi, InitResNorm: initres}
		}
		if step == d.maxiter-1 {
			return types.Status{
				Code: types.MaxIterationsReached, Iterations: step + 1,
				FinalResNorm: resi, InitResNorm: initres,
				Err: &types.IterationCap{Op: "ExplicitSteady", MaxIters: d.maxiter, LastResi: resi},
			}
		}
	}
	return types.Status{Code: types.MaxIterationsReached, Iterations: step, Err: &types.IterationCap{Op: "ExplicitSteady", MaxIters: d.maxiter}}
}

func safeRatio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
