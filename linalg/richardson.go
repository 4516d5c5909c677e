package linalg

import "github.com/fvens-go/fvcore/utils"

// Richardson implements preconditioned Richardson iteration: x <- x +
// Prec(b - Op x), with no Krylov acceleration. It is the default linear
// solver and the one used by the exact-diagonal-update property test.
type Richardson struct {
	r, z *BlockVector
}

func NewRichardson(n, v int) *Richardson {
	return &Richardson{r: NewBlockVector(n, v), z: NewBlockVector(n, v)}
}

func (s *Richardson) Solve(op Operator, prec Preconditioner, b, x *BlockVector, tol float64, maxit int, cancel <-chan struct{}) (int, error) {
	if err := residual(op, b, x, s.r); err != nil {
		return 0, err
	}
	r0 := bvNorm2(s.r)
	if r0 == 0 {
		return 0, nil
	}
	for it := 0; it < maxit; it++ {
		if err := prec.Apply(s.r, s.z); err != nil {
			return it, err
		}
		x.AXPY(1, s.z)
		if err := residual(op, b, x, s.r); err != nil {
			return it + 1, err
		}
		if bvNorm2(s.r)/r0 <= tol {
			return it + 1, nil
		}
		if cancelled(cancel) {
			return it + 1, nil
		}
	}
	return maxit, nil
}

func bvNorm2(v *BlockVector) float64 {
	return utils.Norm2(v.Data)
}
