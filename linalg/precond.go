package linalg

import (
	"github.com/fvens-go/fvcore/types"
	"github.com/fvens-go/fvcore/utils"
)

// Preconditioner approximates z = M^-1 r. Setup is invoked once per
// pseudo-time step after the Jacobian is reassembled; Apply runs inside
// every Krylov iteration, so implementations preallocate their working
// storage in Setup rather than in Apply.
type Preconditioner interface {
	Setup(m *BlockCSR) error
	Apply(r, z *BlockVector) error
}

// NoOpPreconditioner is the identity preconditioner: z <- r. It needs no
// assembled matrix, so it can be paired with the matrix-free operator.
type NoOpPreconditioner struct{}

func (NoOpPreconditioner) Setup(*BlockCSR) error { return nil }

func (NoOpPreconditioner) Apply(r, z *BlockVector) error {
	z.CopyFrom(r)
	return nil
}

// JacobiPreconditioner applies z[i] <- diag(M,i)^-1 r[i]. Embarrassingly
// parallel: every row is independent.
type JacobiPreconditioner struct {
	m *BlockCSR
}

func (p *JacobiPreconditioner) Setup(m *BlockCSR) error {
	p.m = m
	return nil
}

func (p *JacobiPreconditioner) Apply(r, z *BlockVector) error {
	return p.m.DiagonalInverseApply(r, z)
}

// SGSPreconditioner performs a symmetric Gauss-Seidel sweep: a forward
// sweep using the lower triangle followed by a backward sweep using the
// upper triangle, both strictly serial in row order.
type SGSPreconditioner struct {
	m *BlockCSR
}

func (p *SGSPreconditioner) Setup(m *BlockCSR) error {
	p.m = m
	return nil
}

// Apply computes z by one forward sweep (lower triangle + diagonal) then
// one backward sweep (upper triangle + diagonal), the standard symmetric
// Gauss-Seidel iteration used as a preconditioner rather than a solver.
func (p *SGSPreconditioner) Apply(r, z *BlockVector) error {
	v := p.m.V
	n := p.m.N
	z.SetZero()

	// Forward sweep: z[i] <- D_i^-1 (r[i] - sum_{j<i} M_ij z[j]).
	for i := 0; i < n; i++ {
		rhs := make([]float64, v)
		copy(rhs, r.Row(i))
		p.m.RowEntries(i, func(j int, b utils.Matrix) {
			if j >= i {
				return
			}
			zj := z.Row(j)
			for rr := 0; rr < v; rr++ {
				var s float64
				for cc := 0; cc < v; cc++ {
					s += b.At(rr, cc) * zj[cc]
				}
				rhs[rr] -= s
			}
		})
		if err := solveDiag(p.m, i, rhs, z.Row(i)); err != nil {
			return err
		}
	}

	// Backward sweep: z[i] <- D_i^-1 (D_i z[i] - sum_{j>i} M_ij z[j]),
	// i.e. re-solve using the current z with the strictly-upper
	// contribution removed, descending row order.
	for i := n - 1; i >= 0; i-- {
		diag, ok := p.m.DiagBlock(i)
		if !ok {
			return &types.Structural{Op: "SGS.Apply", Row: i, Col: i}
		}
		rhs := make([]float64, v)
		zi := z.Row(i)
		for rr := 0; rr < v; rr++ {
			var s float64
			for cc := 0; cc < v; cc++ {
				s += diag.At(rr, cc) * zi[cc]
			}
			rhs[rr] = s
		}
		p.m.RowEntries(i, func(j int, b utils.Matrix) {
			if j <= i {
				return
			}
			zj := z.Row(j)
			for rr := 0; rr < v; rr++ {
				var s float64
				for cc := 0; cc < v; cc++ {
					s += b.At(rr, cc) * zj[cc]
				}
				rhs[rr] -= s
			}
		})
		if err := solveDiag(p.m, i, rhs, zi); err != nil {
			return err
		}
	}
	return nil
}

// solveDiag solves D_i x = rhs using the cached diagonal inverse and
// writes the result into out.
func solveDiag(m *BlockCSR, i int, rhs, out []float64) error {
	inv, err := m.diagInverse(i)
	if err != nil {
		return err
	}
	v := m.V
	for rr := 0; rr < v; rr++ {
		var s float64
		for cc := 0; cc < v; cc++ {
			s += inv.At(rr, cc) * rhs[cc]
		}
		out[rr] = s
	}
	return nil
}

// ILU0Preconditioner factors M with the incomplete LU pattern of M
// itself: the lower and upper block-triangular factors reuse M's own
// sparsity, stored separately so M is left untouched. Apply performs a
// forward block-triangular solve against L followed by a backward solve
// against U.
type ILU0Preconditioner struct {
	m       *BlockCSR
	lower   map[[2]int]utils.Matrix
	upper   map[[2]int]utils.Matrix
	diagInv []utils.Matrix
}

func (p *ILU0Preconditioner) Setup(m *BlockCSR) error {
	p.m = m
	n := m.N
	p.lower = make(map[[2]int]utils.Matrix)
	p.upper = make(map[[2]int]utils.Matrix)
	p.diagInv = make([]utils.Matrix, n)

	// Start from M's own blocks; factor in place following the ILU(0)
	// pattern-preserving elimination (Saad's Algorithm 10.4 specialized
	// to dense V x V blocks instead of scalars).
	work := make(map[[2]int]utils.Matrix)
	for i := 0; i < n; i++ {
		m.RowEntries(i, func(j int, b utils.Matrix) {
			work[[2]int{i, j}] = b.Copy()
		})
	}

	for i := 0; i < n; i++ {
		m.RowEntries(i, func(k int, _ utils.Matrix) {
			if k >= i {
				return
			}
			dInv := p.diagInv[k]
			aik := work[[2]int{i, k}]
			lik := aik.Mul(dInv)
			work[[2]int{i, k}] = lik
			m.RowEntries(i, func(j int, _ utils.Matrix) {
				if j <= k {
					return
				}
				akj, ok := work[[2]int{k, j}]
				if !ok {
					return
				}
				aij := work[[2]int{i, j}]
				work[[2]int{i, j}] = aij.Subtract(lik.Mul(akj))
			})
		})
		dii, ok := work[[2]int{i, i}]
		if !ok {
			return &types.Structural{Op: "ILU0.Setup", Row: i, Col: i}
		}
		inv, ok := dii.Inverse()
		if !ok {
			return &types.Numerical{Op: "ILU0.Setup", Msg: "singular pivot block"}
		}
		p.diagInv[i] = inv
	}

	for key, b := range work {
		if key[0] > key[1] {
			p.lower[key] = b
		} else if key[0] < key[1] {
			p.upper[key] = b
		}
	}
	return nil
}

// Apply solves (I+L)(D+U) z = r via forward then backward block-triangular
// substitution, the standard ILU(0) preconditioner apply. L holds the
// multipliers (already scaled by the pivot inverses), D the pivot blocks
// and U the strictly upper factor.
func (p *ILU0Preconditioner) Apply(r, z *BlockVector) error {
	n := p.m.N
	v := p.m.V
	y := NewBlockVector(n, v)

	// Forward solve (I + L) y = r.
	for i := 0; i < n; i++ {
		rhs := utils.CopySlice(r.Row(i))
		p.m.RowEntries(i, func(j int, _ utils.Matrix) {
			if j >= i {
				return
			}
			lij, ok := p.lower[[2]int{i, j}]
			if !ok {
				return
			}
			yj := y.Row(j)
			for rr := 0; rr < v; rr++ {
				var s float64
				for cc := 0; cc < v; cc++ {
					s += lij.At(rr, cc) * yj[cc]
				}
				rhs[rr] -= s
			}
		})
		copy(y.Row(i), rhs)
	}

	// Backward solve (D + U) z = y, i.e. z[i] = D_i^-1 (y[i] - U z)
	// descending.
	for i := n - 1; i >= 0; i-- {
		rhs := utils.CopySlice(y.Row(i))
		p.m.RowEntries(i, func(j int, _ utils.Matrix) {
			if j <= i {
				return
			}
			uij, ok := p.upper[[2]int{i, j}]
			if !ok {
				return
			}
			zj := z.Row(j)
			for rr := 0; rr < v; rr++ {
				var s float64
				for cc := 0; cc < v; cc++ {
					s += uij.At(rr, cc) * zj[cc]
				}
				rhs[rr] -= s
			}
		})
		out := z.Row(i)
		applyInv(p.diagInv[i], rhs, out)
	}
	return nil
}

func applyInv(inv utils.Matrix, rhs, out []float64) {
	v := len(rhs)
	for rr := 0; rr < v; rr++ {
		var s float64
		for cc := 0; cc < v; cc++ {
			s += inv.At(rr, cc) * rhs[cc]
		}
		out[rr] = s
	}
}
