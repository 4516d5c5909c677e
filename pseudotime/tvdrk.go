// Package pseudotime implements the three outer drivers that march a
// Spatial residual operator toward a fixed point or a terminal physical
// time: ExplicitSteady, ImplicitSteady and ExplicitUnsteady.
package pseudotime

import (
	"fmt"

	"github.com/fvens-go/fvcore/types"
)

// tvdRKCoeffs holds the (alpha, beta, gamma) triples per stage for TVD-RK
// orders 1 through 3, built exactly as aodesolver.cpp's
// initialize_TVDRK_Coeffs does.
var tvdRKCoeffs = map[int][][3]float64{
	1: {
		{1, 0, 1},
	},
	2: {
		{1, 0, 1},
		{0.5, 0.5, 0.5},
	},
	3: {
		{1, 0, 1},
		{0.75, 0.25, 0.25},
		{1.0 / 3.0, 2.0 / 3.0, 2.0 / 3.0},
	},
}

// tvdRKCoefficients returns the coefficient table for order, or a
// ConfigError if order is outside {1,2,3}.
func tvdRKCoefficients(order int) ([][3]float64, error) {
	c, ok := tvdRKCoeffs[order]
	if !ok {
		return nil, &types.ConfigError{Field: "order", Value: fmt.Sprint(order), Msg: "TVD-RK order must be 1, 2 or 3"}
	}
	return c, nil
}
