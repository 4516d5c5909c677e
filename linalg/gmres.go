package linalg

import "math"

// GMRES implements right-preconditioned restarted GMRES(k): Arnoldi with
// modified Gram-Schmidt builds an orthonormal basis of the Krylov
// subspace, Givens rotations maintain the upper-triangular factor of the
// Hessenberg matrix incrementally (one column at a time, following the
// iterative package's gmres.go), and the least-squares update is a
// straightforward upper-triangular back-substitution. gocfd's
// utils/sparse_block.go sketched this same factorization but stopped at a
// stub least-squares solve; this carries it through restart.
type GMRES struct {
	restart int

	v   []*BlockVector // restart+1 basis vectors
	h   []float64      // (restart+1) x restart Hessenberg, column-major
	cs  []float64      // Givens cosines
	sn  []float64      // Givens sines
	g   []float64      // rotated RHS of the least-squares problem
	y   []float64      // back-substitution solution
	w   *BlockVector
	z   *BlockVector // preconditioned search direction
}

func NewGMRES(n, v, restart int) *GMRES {
	basis := make([]*BlockVector, restart+1)
	for i := range basis {
		basis[i] = NewBlockVector(n, v)
	}
	return &GMRES{
		restart: restart,
		v:       basis,
		h:       make([]float64, (restart+1)*restart),
		cs:      make([]float64, restart),
		sn:      make([]float64, restart),
		g:       make([]float64, restart+1),
		y:       make([]float64, restart),
		w:       NewBlockVector(n, v),
		z:       NewBlockVector(n, v),
	}
}

func (s *GMRES) hAt(i, j int) float64     { return s.h[j*(s.restart+1)+i] }
func (s *GMRES) hSet(i, j int, x float64) { s.h[j*(s.restart+1)+i] = x }

// drotg computes the Givens rotation (c, sn) that zeroes b against a,
// following the classical BLAS drotg convention used by the iterative
// package's gmres.go.
func drotg(a, b float64) (c, sn float64) {
	if b == 0 {
		return 1, 0
	}
	if math.Abs(b) > math.Abs(a) {
		t := a / b
		sn = 1 / math.Sqrt(1+t*t)
		c = t * sn
	} else {
		t := b / a
		c = 1 / math.Sqrt(1+t*t)
		sn = t * c
	}
	return c, sn
}

func (s *GMRES) Solve(op Operator, prec Preconditioner, b, x *BlockVector, tol float64, maxit int, cancel <-chan struct{}) (int, error) {
	if err := residual(op, b, x, s.v[0]); err != nil {
		return 0, err
	}
	r0 := bvNorm2(s.v[0])
	if r0 == 0 {
		return 0, nil
	}

	totalIters := 0
	for totalIters < maxit {
		beta := bvNorm2(s.v[0])
		if beta == 0 {
			break
		}
		s.v[0].Scale(1 / beta)
		s.g[0] = beta
		for i := 1; i <= s.restart; i++ {
			s.g[i] = 0
		}

		m := s.restart
		for j := 0; j < s.restart && totalIters < maxit; j++ {
			totalIters++
			if err := prec.Apply(s.v[j], s.z); err != nil {
				return totalIters, err
			}
			if err := op.Apply(s.z, s.w); err != nil {
				return totalIters, err
			}
			// Modified Gram-Schmidt Arnoldi.
			for k := 0; k <= j; k++ {
				hkj := s.v[k].Dot(s.w)
				s.hSet(k, j, hkj)
				s.w.AXPY(-hkj, s.v[k])
			}
			hNext := bvNorm2(s.w)
			s.hSet(j+1, j, hNext)
			if hNext > 1e-300 {
				s.v[j+1].CopyFrom(s.w)
				s.v[j+1].Scale(1 / hNext)
			}

			// Apply previous rotations to the new column, then compute
			// and apply the new rotation.
			for k := 0; k < j; k++ {
				tmp := s.cs[k]*s.hAt(k, j) + s.sn[k]*s.hAt(k+1, j)
				next := -s.sn[k]*s.hAt(k, j) + s.cs[k]*s.hAt(k+1, j)
				s.hSet(k, j, tmp)
				s.hSet(k+1, j, next)
			}
			c, sn := drotg(s.hAt(j, j), s.hAt(j+1, j))
			s.cs[j], s.sn[j] = c, sn
			s.hSet(j, j, c*s.hAt(j, j)+sn*s.hAt(j+1, j))
			s.hSet(j+1, j, 0)
			g0 := s.g[j]
			s.g[j] = c * g0
			s.g[j+1] = -sn * g0

			resNorm := math.Abs(s.g[j+1])
			if resNorm/r0 <= tol {
				m = j + 1
				break
			}
			m = j + 1
			if cancelled(cancel) {
				break
			}
		}

		if err := s.updateX(x, prec, m); err != nil {
			return totalIters, err
		}

		if err := residual(op, b, x, s.v[0]); err != nil {
			return totalIters, err
		}
		if bvNorm2(s.v[0])/r0 <= tol {
			return totalIters, nil
		}
		if cancelled(cancel) {
			return totalIters, nil
		}
	}
	return totalIters, nil
}

// updateX solves the m x m upper-triangular system R y = g by back
// substitution and forms x <- x + sum_i y_i * Prec(v_i), the standard
// GMRES restart update (right preconditioning, so the correction is
// re-preconditioned column by column rather than once at the end).
func (s *GMRES) updateX(x *BlockVector, prec Preconditioner, m int) error {
	if m == 0 {
		return nil
	}
	for i := m - 1; i >= 0; i-- {
		sum := s.g[i]
		for k := i + 1; k < m; k++ {
			sum -= s.hAt(i, k) * s.y[k]
		}
		s.y[i] = sum / s.hAt(i, i)
	}
	for i := 0; i < m; i++ {
		if err := prec.Apply(s.v[i], s.z); err != nil {
			return err
		}
		x.AXPY(s.y[i], s.z)
	}
	return nil
}
