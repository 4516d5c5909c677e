package pseudotime

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fvens-go/fvcore/linalg"
	"github.com/fvens-go/fvcore/spatial"
	"github.com/fvens-go/fvcore/spatial/linearfvm"
	"github.com/fvens-go/fvcore/types"
)

// scalarMesh/scalarSpatial is a single-cell R(u) = -lambda*u fixture used
// to check the TVD-RK stage recurrence against the analytic stability
// polynomial of the corresponding RK order, independent of any mesh
// discretization error.
type scalarMesh struct{}

func (scalarMesh) NCells() int        { return 1 }
func (scalarMesh) Area(int) float64   { return 1 }

type scalarSpatial struct {
	lambda float64
	dt     float64
}

func (s *scalarSpatial) Mesh() spatial.Mesh { return scalarMesh{} }

func (s *scalarSpatial) ComputeResidual(u, r *linalg.BlockVector, wantDt bool, dt []float64) error {
	r.Data[0] = -s.lambda * u.Data[0]
	if wantDt {
		dt[0] = s.dt
	}
	return nil
}

func (s *scalarSpatial) ComputeJacobian(_ *linalg.BlockVector, m *linalg.BlockCSR) error {
	return nil
}

var _ spatial.Spatial = (*scalarSpatial)(nil)

// stabilityPolynomial returns sum_{j=0}^{order} z^j/j!, the amplification
// factor a single TVD-RK(order) step applies to du/dt = lambda*u.
func stabilityPolynomial(order int, z float64) float64 {
	sum, term := 1.0, 1.0
	for j := 1; j <= order; j++ {
		term *= z / float64(j)
		sum += term
	}
	return sum
}

func TestExplicitUnsteadyMatchesStabilityPolynomial(t *testing.T) {
	for _, order := range []int{1, 2, 3} {
		for _, lambda := range []float64{-0.1, -0.5, -1.0} {
			sp := &scalarSpatial{lambda: lambda, dt: 1.0}
			driver, err := NewExplicitUnsteady(sp, 1, order, 1.0, 1)
			require.NoError(t, err)

			u := linalg.NewBlockVector(1, 1)
			u.Data[0] = 1.0
			status := driver.Solve(u, 1.0)
			require.Equal(t, types.Converged, status.Code)
			require.Equal(t, 1, status.Iterations)

			want := stabilityPolynomial(order, lambda)
			assert.InDeltaf(t, want, u.Data[0], 1e-12, "order %d lambda %g", order, lambda)
		}
	}
}

func TestExplicitUnsteadyConservesMassOnPeriodicMesh(t *testing.T) {
	mesh := linearfvm.NewMesh(1.0, 25)
	sp := linearfvm.NewSpatial(mesh, 0.7, nil, 0.4)

	u := linalg.NewBlockVector(25, 1)
	for i := range u.Data {
		u.Data[i] = 1 + math.Sin(2*math.Pi*float64(i)/25)
	}

	totalBefore := 0.0
	for i := range u.Data {
		totalBefore += u.Data[i] * mesh.Area(i)
	}

	driver, err := NewExplicitUnsteady(sp, 1, 2, 0.4, 2)
	require.NoError(t, err)

	status := driver.Solve(u, 0.3)
	assert.Equal(t, types.Converged, status.Code)
	assert.Greater(t, status.Iterations, 0)

	totalAfter := 0.0
	for i := range u.Data {
		totalAfter += u.Data[i] * mesh.Area(i)
	}
	assert.InDelta(t, totalBefore, totalAfter, 1e-9)
}

func TestExplicitUnsteadyOrder4ConstructionFails(t *testing.T) {
	sp := &scalarSpatial{lambda: -1, dt: 1}
	_, err := NewExplicitUnsteady(sp, 1, 4, 1.0, 1)
	require.Error(t, err)
	var cfgErr *types.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
