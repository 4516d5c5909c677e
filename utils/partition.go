package utils

import "sync"

// PartitionMap splits MaxIndex cells into ParallelDegree contiguous
// buckets of near-equal size, the same scheme
// model_problems/Euler2D/parallelism.go used to shard a mesh's elements
// across goroutines.
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
	bounds         [][2]int // [min,max) per bucket
}

func NewPartitionMap(parallelDegree, maxIndex int) *PartitionMap {
	if parallelDegree < 1 {
		parallelDegree = 1
	}
	if parallelDegree > maxIndex {
		parallelDegree = maxIndex
		if parallelDegree < 1 {
			parallelDegree = 1
		}
	}
	pm := &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: parallelDegree,
		bounds:         make([][2]int, parallelDegree),
	}
	base := maxIndex / parallelDegree
	remainder := maxIndex % parallelDegree
	start := 0
	for n := 0; n < parallelDegree; n++ {
		size := base
		if n < remainder {
			size++
		}
		pm.bounds[n] = [2]int{start, start + size}
		start += size
	}
	return pm
}

// Bounds returns the half-open [min,max) cell range owned by bucket n.
func (pm *PartitionMap) Bounds(n int) (min, max int) {
	b := pm.bounds[n]
	return b[0], b[1]
}

// ParallelFor runs body(lo, hi) once per partition bucket concurrently and
// waits for all buckets to finish before returning. The drivers' explicit
// cell updates, TVD-RK stage combinations, implicit correction update and
// post-freeze diagonal augmentation are each a single ParallelFor call
// over their cell range.
func (pm *PartitionMap) ParallelFor(body func(lo, hi int)) {
	var wg sync.WaitGroup
	wg.Add(pm.ParallelDegree)
	for n := 0; n < pm.ParallelDegree; n++ {
		lo, hi := pm.Bounds(n)
		go func(lo, hi int) {
			defer wg.Done()
			body(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// ParallelReduceSum runs body(lo, hi) per partition to obtain a partial
// sum, then combines the partials serially. Used for the drivers' residual
// norm, whose spec'd reduction operator is "+:".
func (pm *PartitionMap) ParallelReduceSum(body func(lo, hi int) float64) float64 {
	partials := make([]float64, pm.ParallelDegree)
	var wg sync.WaitGroup
	wg.Add(pm.ParallelDegree)
	for n := 0; n < pm.ParallelDegree; n++ {
		lo, hi := pm.Bounds(n)
		go func(n, lo, hi int) {
			defer wg.Done()
			partials[n] = body(lo, hi)
		}(n, lo, hi)
	}
	wg.Wait()
	var total float64
	for _, p := range partials {
		total += p
	}
	return total
}

// ParallelReduceMin runs body(lo, hi) per partition to obtain a partial
// minimum, then combines the partials serially. Used for Δt_min, whose
// spec'd reduction operator is "min:".
func (pm *PartitionMap) ParallelReduceMin(body func(lo, hi int) float64) float64 {
	partials := make([]float64, pm.ParallelDegree)
	var wg sync.WaitGroup
	wg.Add(pm.ParallelDegree)
	for n := 0; n < pm.ParallelDegree; n++ {
		lo, hi := pm.Bounds(n)
		go func(n, lo, hi int) {
			defer wg.Done()
			partials[n] = body(lo, hi)
		}(n, lo, hi)
	}
	wg.Wait()
	min := partials[0]
	for _, p := range partials[1:] {
		if p < min {
			min = p
		}
	}
	return min
}
