package linalg

import (
	"sort"

	"github.com/james-bowman/sparse"

	"github.com/fvens-go/fvcore/types"
	"github.com/fvens-go/fvcore/utils"
)

// BlockCSR is a fixed-structure block-sparse matrix: a scalar-level
// sparsity pattern (one entry per cell-pair) each holding a dense V x V
// block. Assembly happens against a scalar sparse.DOK (following
// utils/sparse.go's DOK/CSR split from github.com/james-bowman/sparse);
// FreezePattern converts the accumulated (row,col) pattern into row
// pointer / column index arrays and allocates the block storage once, so
// no further structural allocation happens afterward.
type BlockCSR struct {
	V int
	N int

	frozen bool
	dok    *sparse.DOK
	staged map[[2]int][]float64 // block values set before freeze, keyed by (row,col)

	rowPtr   []int
	colIdx   []int
	blocks   []float64 // len(colIdx)*V*V, block k row-major at blocks[k*V*V:(k+1)*V*V]
	diagPos  []int     // index into colIdx/blocks of the diagonal entry per row
	diagInv  []utils.Matrix
	diagInvOK []bool
}

// NewBlockCSR allocates an unfrozen block matrix for n cells of block
// size v x v.
func NewBlockCSR(n, v int) *BlockCSR {
	return &BlockCSR{
		V:      v,
		N:      n,
		dok:    sparse.NewDOK(n, n),
		staged: make(map[[2]int][]float64),
	}
}

func blockKey(i, j int) [2]int { return [2]int{i, j} }

// SetBlock writes B into the block at (i,j). Before FreezePattern this may
// introduce a new nonzero position; afterward it must refer to an
// existing slot or it fails with types.Structural.
func (m *BlockCSR) SetBlock(i, j int, b utils.Matrix) error {
	if !m.frozen {
		m.dok.Set(i, j, 1)
		m.staged[blockKey(i, j)] = utils.CopySlice(b.Data())
		return nil
	}
	pos, ok := m.find(i, j)
	if !ok {
		return &types.Structural{Op: "SetBlock", Row: i, Col: j}
	}
	copy(m.blocks[pos*m.V*m.V:(pos+1)*m.V*m.V], b.Data())
	m.invalidateDiagCache(i)
	return nil
}

// UpdateDiagBlock adds B in place to the diagonal block of row i.
func (m *BlockCSR) UpdateDiagBlock(i int, b utils.Matrix) error {
	if !m.frozen {
		m.dok.Set(i, i, 1)
		cur, ok := m.staged[blockKey(i, i)]
		if !ok {
			cur = make([]float64, m.V*m.V)
		}
		bd := b.Data()
		for k, v := range bd {
			cur[k] += v
		}
		m.staged[blockKey(i, i)] = cur
		return nil
	}
	pos := m.diagPos[i]
	if pos < 0 {
		return &types.Structural{Op: "UpdateDiagBlock", Row: i, Col: i}
	}
	bd := b.Data()
	base := pos * m.V * m.V
	for k, v := range bd {
		m.blocks[base+k] += v
	}
	m.invalidateDiagCache(i)
	return nil
}

// SetAllZero zeroes every stored block value while preserving the frozen
// pattern (or the staged set, pre-freeze).
func (m *BlockCSR) SetAllZero() {
	if !m.frozen {
		for k := range m.staged {
			m.staged[k] = make([]float64, m.V*m.V)
		}
		return
	}
	for i := range m.blocks {
		m.blocks[i] = 0
	}
	for i := range m.diagInvOK {
		m.diagInvOK[i] = false
	}
}

// FreezePattern converts the accumulated scalar pattern into row-pointer /
// column-index arrays and allocates block storage. Idempotent: calling it
// again is a no-op.
func (m *BlockCSR) FreezePattern() {
	if m.frozen {
		return
	}
	type rc struct{ r, c int }
	var pairs []rc
	m.dok.DoNonZero(func(i, j int, _ float64) {
		pairs = append(pairs, rc{i, j})
	})
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].r != pairs[b].r {
			return pairs[a].r < pairs[b].r
		}
		return pairs[a].c < pairs[b].c
	})

	m.rowPtr = make([]int, m.N+1)
	m.colIdx = make([]int, len(pairs))
	m.blocks = make([]float64, len(pairs)*m.V*m.V)
	m.diagPos = make([]int, m.N)
	for i := range m.diagPos {
		m.diagPos[i] = -1
	}
	m.diagInv = make([]utils.Matrix, m.N)
	m.diagInvOK = make([]bool, m.N)

	row := 0
	for k, p := range pairs {
		for row < p.r {
			row++
			m.rowPtr[row] = k
		}
		m.colIdx[k] = p.c
		if vals, ok := m.staged[blockKey(p.r, p.c)]; ok {
			copy(m.blocks[k*m.V*m.V:(k+1)*m.V*m.V], vals)
		}
		if p.r == p.c {
			m.diagPos[p.r] = k
		}
	}
	for row++; row <= m.N; row++ {
		m.rowPtr[row] = len(pairs)
	}

	m.dok = nil
	m.staged = nil
	m.frozen = true
}

// find returns the block-array index of (i,j) once frozen.
func (m *BlockCSR) find(i, j int) (int, bool) {
	lo, hi := m.rowPtr[i], m.rowPtr[i+1]
	for k := lo; k < hi; k++ {
		if m.colIdx[k] == j {
			return k, true
		}
	}
	return 0, false
}

// NNZ returns the number of stored V x V blocks (scalar-pattern nonzero
// count, not scalar nonzero count), used by the freeze/reassemble
// pattern-preservation test.
func (m *BlockCSR) NNZ() int {
	if !m.frozen {
		return len(m.staged)
	}
	return len(m.colIdx)
}

func (m *BlockCSR) invalidateDiagCache(i int) {
	if m.diagInvOK != nil {
		m.diagInvOK[i] = false
	}
}

func (m *BlockCSR) blockAt(pos int) utils.Matrix {
	return utils.NewMatrix(m.V, m.V, m.blocks[pos*m.V*m.V:(pos+1)*m.V*m.V])
}

// Apply computes y <- M*x, row-major over block rows. Each row is
// independent of every other, so this is one of the "safe parallel loops"
// named for the data-parallel primitive.
func (m *BlockCSR) Apply(x, y *BlockVector) error {
	if !m.frozen {
		return &types.Structural{Op: "Apply", Row: -1, Col: -1}
	}
	v := m.V
	for i := 0; i < m.N; i++ {
		out := y.Row(i)
		for k := range out {
			out[k] = 0
		}
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			j := m.colIdx[k]
			xr := x.Row(j)
			base := k * v * v
			for r := 0; r < v; r++ {
				var s float64
				brow := m.blocks[base+r*v : base+(r+1)*v]
				for c := 0; c < v; c++ {
					s += brow[c] * xr[c]
				}
				out[r] += s
			}
		}
	}
	return nil
}

// ApplyRange computes y <- M*x restricted to cell rows [lo,hi), the shape
// utils.PartitionMap.ParallelFor expects from its body closure.
func (m *BlockCSR) ApplyRange(x, y *BlockVector, lo, hi int) {
	v := m.V
	for i := lo; i < hi; i++ {
		out := y.Row(i)
		for k := range out {
			out[k] = 0
		}
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			j := m.colIdx[k]
			xr := x.Row(j)
			base := k * v * v
			for r := 0; r < v; r++ {
				var s float64
				brow := m.blocks[base+r*v : base+(r+1)*v]
				for c := 0; c < v; c++ {
					s += brow[c] * xr[c]
				}
				out[r] += s
			}
		}
	}
}

// DiagonalInverseApply sets y[i] <- diag(i)^-1 * x[i] for every cell,
// caching each diagonal block's inverse the first time it is needed after
// the block last changed.
func (m *BlockCSR) DiagonalInverseApply(x, y *BlockVector) error {
	for i := 0; i < m.N; i++ {
		inv, err := m.diagInverse(i)
		if err != nil {
			return err
		}
		xr := x.Row(i)
		out := y.Row(i)
		v := m.V
		for r := 0; r < v; r++ {
			var s float64
			for c := 0; c < v; c++ {
				s += inv.At(r, c) * xr[c]
			}
			out[r] = s
		}
	}
	return nil
}

// diagInverse returns (and caches) the inverse of row i's diagonal block.
func (m *BlockCSR) diagInverse(i int) (utils.Matrix, error) {
	if m.diagInvOK[i] {
		return m.diagInv[i], nil
	}
	pos := m.diagPos[i]
	if pos < 0 {
		return utils.Matrix{}, &types.Structural{Op: "DiagonalInverseApply", Row: i, Col: i}
	}
	inv, ok := m.blockAt(pos).Inverse()
	if !ok {
		return utils.Matrix{}, &types.Numerical{Op: "DiagonalInverseApply", Msg: "singular diagonal block"}
	}
	m.diagInv[i] = inv
	m.diagInvOK[i] = true
	return inv, nil
}

// DiagBlock returns a copy of row i's diagonal block, used by the SGS
// backward sweep.
func (m *BlockCSR) DiagBlock(i int) (utils.Matrix, bool) {
	pos := m.diagPos[i]
	if pos < 0 {
		return utils.Matrix{}, false
	}
	return m.blockAt(pos).Copy(), true
}

// RowEntries calls fn(j, block) for every stored entry in row i, in
// increasing column order. block is a live view; callers must not retain
// or mutate it beyond the call.
func (m *BlockCSR) RowEntries(i int, fn func(j int, block utils.Matrix)) {
	for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
		fn(m.colIdx[k], m.blockAt(k))
	}
}

// Frozen reports whether the pattern has been frozen.
func (m *BlockCSR) Frozen() bool { return m.frozen }
