package linalg

import "github.com/fvens-go/fvcore/utils"

// BlockVector is an N x V dense row-major array: N cells of V conserved
// variables each, backed by one flat slice the way model_problems/Euler2D
// keeps its per-partition Q arrays contiguous for cache-friendly parallel
// access.
type BlockVector struct {
	N, V int
	Data []float64
}

// NewBlockVector allocates a zeroed N x V block vector.
func NewBlockVector(n, v int) *BlockVector {
	return &BlockVector{N: n, V: v, Data: make([]float64, n*v)}
}

// Row returns the V-length slice for cell i, sharing storage with bv.
func (bv *BlockVector) Row(i int) []float64 {
	return bv.Data[i*bv.V : (i+1)*bv.V]
}

// SetZero zeroes every entry.
func (bv *BlockVector) SetZero() {
	for i := range bv.Data {
		bv.Data[i] = 0
	}
}

// CopyFrom overwrites bv's contents with src's; both must share shape.
func (bv *BlockVector) CopyFrom(src *BlockVector) {
	copy(bv.Data, src.Data)
}

// Clone returns an independent copy of bv.
func (bv *BlockVector) Clone() *BlockVector {
	out := NewBlockVector(bv.N, bv.V)
	copy(out.Data, bv.Data)
	return out
}

// AXPY computes bv <- bv + a*x in place, the inner-loop primitive used by
// the Krylov iterations in this module.
func (bv *BlockVector) AXPY(a float64, x *BlockVector) {
	utils.AXPY(a, x.Data, bv.Data)
}

// Scale computes bv <- a*bv in place.
func (bv *BlockVector) Scale(a float64) {
	utils.Scale(a, bv.Data)
}

// Dot returns the Euclidean inner product of bv and x's flat storage.
func (bv *BlockVector) Dot(x *BlockVector) float64 {
	return utils.Dot(bv.Data, x.Data)
}
