package utils

import "math"

// Dot returns the Euclidean inner product of x and y.
func Dot(x, y []float64) (s float64) {
	for i, v := range x {
		s += v * y[i]
	}
	return
}

// Norm2 returns the Euclidean (L2) norm of x.
func Norm2(x []float64) float64 {
	return math.Sqrt(Dot(x, x))
}

// AXPY computes y <- a*x + y in place, the inner-loop primitive of every
// Krylov method in package linalg.
func AXPY(a float64, x, y []float64) {
	for i, v := range x {
		y[i] += a * v
	}
}

// Scale computes x <- a*x in place.
func Scale(a float64, x []float64) {
	for i := range x {
		x[i] *= a
	}
}

// CopySlice returns a fresh copy of x.
func CopySlice(x []float64) []float64 {
	y := make([]float64, len(x))
	copy(y, x)
	return y
}
