// Package linearfvm is a minimal reference Spatial/Mesh pair implementing
// a linear residual operator R(U) = A U - b on a 1-D finite-volume mesh.
// It exists only to exercise this module's own test suite and CLI demo
// subcommands: it is not a production spatial discretization (real flux
// functions and mesh topology are out of scope, per the core's external
// collaborators). Grounded on the owner/neighbour face-connection mesh
// shape used for a 1-D advection-diffusion model problem.
package linearfvm

import (
	"github.com/fvens-go/fvcore/linalg"
	"github.com/fvens-go/fvcore/spatial"
	"github.com/fvens-go/fvcore/utils"
)

// BoundaryIndex marks a face with no neighbour cell (a domain boundary).
const BoundaryIndex = -1

// Connection is one interior face: the pair of cells (owner, neighbour)
// it separates.
type Connection struct {
	Owner, Neighbour int
}

// Mesh is a 1-D finite-volume mesh of numCells equal-width cells spanning
// [0, length], following the owner/neighbour face-connection shape used
// by a simple 1-D advection-diffusion model problem.
type Mesh struct {
	NumCells    int
	Length      float64
	Centroids   []float64
	CellVols    []float64
	Connections []Connection
	ConnDists   []float64 // distance between the two cell centroids per connection
	FaceAreas   []float64
}

// NewMesh builds a uniform 1-D mesh of numCells cells over [0, length].
func NewMesh(length float64, numCells int) *Mesh {
	dx := length / float64(numCells)
	m := &Mesh{
		NumCells:  numCells,
		Length:    length,
		Centroids: make([]float64, numCells),
		CellVols:  make([]float64, numCells),
		FaceAreas: make([]float64, numCells-1),
	}
	for i := 0; i < numCells; i++ {
		m.Centroids[i] = (float64(i) + 0.5) * dx
		m.CellVols[i] = dx
	}
	for i := 0; i < numCells-1; i++ {
		m.Connections = append(m.Connections, Connection{Owner: i, Neighbour: i + 1})
		m.ConnDists = append(m.ConnDists, dx)
		m.FaceAreas[i] = 1
	}
	return m
}

func (m *Mesh) NCells() int          { return m.NumCells }
func (m *Mesh) Area(i int) float64   { return m.CellVols[i] }

// Spatial computes R(U) = A U - b for a fixed A built once at
// construction (a periodic first-order upwind difference operator), used
// by the explicit-driver tests and the CLI demo subcommands.
type Spatial struct {
	mesh *Mesh
	a    *linalg.BlockCSR // V=1, so each "block" is a 1x1 scalar
	b    []float64
	wave float64
	dt   float64
}

// NewSpatial builds the frozen upwind-difference operator for periodic
// scalar advection at speed `wave` (wave>0 means upwind is the cell
// behind, matching a simple first-order upwind scheme), with source term
// b (may be nil for a homogeneous operator).
func NewSpatial(mesh *Mesh, wave float64, b []float64, cfl float64) *Spatial {
	n := mesh.NCells()
	a := linalg.NewBlockCSR(n, 1)
	dx := mesh.Length / float64(n)
	coef := wave / dx

	for i := 0; i < n; i++ {
		im1 := i - 1
		if im1 < 0 {
			im1 = n - 1 // periodic
		}
		a.SetBlock(i, i, utils.NewMatrix(1, 1, []float64{coef}))
		a.SetBlock(i, im1, utils.NewMatrix(1, 1, []float64{-coef}))
	}
	a.FreezePattern()

	if b == nil {
		b = make([]float64, n)
	}
	return &Spatial{mesh: mesh, a: a, b: b, wave: wave, dt: cfl * dx / wave}
}

func (s *Spatial) Mesh() spatial.Mesh { return s.mesh }

var (
	_ spatial.Mesh    = (*Mesh)(nil)
	_ spatial.Spatial = (*Spatial)(nil)
)

// ComputeResidual sets r <- A u - b and, if wantDt, fills dt with the
// fixed stable step computed at construction.
func (s *Spatial) ComputeResidual(u, r *linalg.BlockVector, wantDt bool, dt []float64) error {
	if err := s.a.Apply(u, r); err != nil {
		return err
	}
	for i := 0; i < s.mesh.NCells(); i++ {
		r.Data[i] -= s.b[i]
	}
	if wantDt {
		for i := range dt {
			dt[i] = s.dt
		}
	}
	return nil
}

// ComputeJacobian fills m with a copy of the fixed operator A, since R is
// linear in U.
func (s *Spatial) ComputeJacobian(_ *linalg.BlockVector, m *linalg.BlockCSR) error {
	for i := 0; i < s.mesh.NCells(); i++ {
		var err error
		s.a.RowEntries(i, func(j int, b utils.Matrix) {
			if err != nil {
				return
			}
			err = m.SetBlock(i, j, b)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
