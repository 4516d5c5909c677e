package linalg

import (
	"math"

	"github.com/fvens-go/fvcore/types"
)

// dlamchE is the machine epsilon used for the rho/omega breakdown guards,
// matching the threshold the iterative package's bicgstab.go compares
// against (dlamchE*dlamchE).
const dlamchE = 2.220446049250313e-16

// BiCGStab implements preconditioned BiCGStab with the standard rho/omega
// breakdown guards: on breakdown the shadow residual is reinitialised
// rather than aborting the solve; a second consecutive breakdown returns
// types.Numerical.
type BiCGStab struct {
	rTilde, p, v, s, t, ph, sh *BlockVector
	rho, rhoOld, alpha, omega float64
	consecutiveBreakdowns     int
}

func NewBiCGStab(n, v int) *BiCGStab {
	return &BiCGStab{
		rTilde: NewBlockVector(n, v),
		p:      NewBlockVector(n, v),
		v:      NewBlockVector(n, v),
		s:      NewBlockVector(n, v),
		t:      NewBlockVector(n, v),
		ph:     NewBlockVector(n, v),
		sh:     NewBlockVector(n, v),
	}
}

func (s *BiCGStab) Solve(op Operator, prec Preconditioner, b, x *BlockVector, tol float64, maxit int, cancel <-chan struct{}) (int, error) {
	n, vsz := b.N, b.V
	r := NewBlockVector(n, vsz)
	if err := residual(op, b, x, r); err != nil {
		return 0, err
	}
	r0 := bvNorm2(r)
	if r0 == 0 {
		return 0, nil
	}
	s.rTilde.CopyFrom(r)
	s.rho, s.alpha, s.omega = 1, 1, 1
	s.p.SetZero()
	s.v.SetZero()
	s.consecutiveBreakdowns = 0

	restartShadow := func() {
		s.rTilde.CopyFrom(r)
		s.p.SetZero()
		s.v.SetZero()
		s.alpha, s.omega = 1, 1
	}

	for it := 0; it < maxit; it++ {
		s.rhoOld = s.rho
		s.rho = s.rTilde.Dot(r)
		if math.Abs(s.rho) < dlamchE*dlamchE {
			// rho breakdown: restart the shadow residual against the
			// current true residual instead of aborting outright.
			restartShadow()
			s.rho = s.rTilde.Dot(r)
			s.consecutiveBreakdowns++
			if s.consecutiveBreakdowns >= 2 {
				return it, &types.Numerical{Op: "BiCGStab", Msg: "rho breakdown persisted across restart"}
			}
			continue
		}
		s.consecutiveBreakdowns = 0
		beta := (s.rho / s.rhoOld) * (s.alpha / s.omega)
		// p <- r + beta*(p - omega*v)
		for i := range s.p.Data {
			s.p.Data[i] = r.Data[i] + beta*(s.p.Data[i]-s.omega*s.v.Data[i])
		}
		if err := prec.Apply(s.p, s.ph); err != nil {
			return it, err
		}
		if err := op.Apply(s.ph, s.v); err != nil {
			return it, err
		}
		rtv := s.rTilde.Dot(s.v)
		if math.Abs(rtv) < dlamchE*dlamchE {
			return it, &types.Numerical{Op: "BiCGStab", Msg: "rTilde.v breakdown"}
		}
		s.alpha = s.rho / rtv

		s.s.CopyFrom(r)
		s.s.AXPY(-s.alpha, s.v)
		if bvNorm2(s.s)/r0 <= tol {
			x.AXPY(s.alpha, s.ph)
			return it + 1, nil
		}

		if err := prec.Apply(s.s, s.sh); err != nil {
			return it, err
		}
		if err := op.Apply(s.sh, s.t); err != nil {
			return it, err
		}
		tt := s.t.Dot(s.t)
		if tt < dlamchE*dlamchE {
			s.omega = 0
		} else {
			s.omega = s.t.Dot(s.s) / tt
		}
		x.AXPY(s.alpha, s.ph)
		x.AXPY(s.omega, s.sh)
		r.CopyFrom(s.s)
		r.AXPY(-s.omega, s.t)

		if bvNorm2(r)/r0 <= tol {
			return it + 1, nil
		}
		if math.Abs(s.omega) < dlamchE*dlamchE {
			// omega breakdown: restart the shadow residual rather than
			// aborting, same policy as the rho guard above.
			restartShadow()
			s.consecutiveBreakdowns++
			if s.consecutiveBreakdowns >= 2 {
				return it + 1, &types.Numerical{Op: "BiCGStab", Msg: "omega breakdown persisted across restart"}
			}
			continue
		}
		s.consecutiveBreakdowns = 0
		if cancelled(cancel) {
			return it + 1, nil
		}
	}
	return maxit, nil
}
