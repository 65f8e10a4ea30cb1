package assembly

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Triplet accumulates sparse matrix entries in coordinate form. Duplicate
// (i, j) entries sum on conversion, which matches the accumulate semantics
// of element assembly: every element scatters its block without searching
// for existing entries.
type Triplet struct {
	rows, cols int
	is, js     []int
	vs         []float64
}

// NewTriplet creates an empty r-by-c triplet accumulator.
func NewTriplet(r, c int) *Triplet {
	return &Triplet{rows: r, cols: c}
}

// Dims returns the matrix dimensions.
func (t *Triplet) Dims() (r, c int) {
	return t.rows, t.cols
}

// Len returns the number of stored entries, counting duplicates.
func (t *Triplet) Len() int {
	return len(t.vs)
}

// Put appends the entry (i, j, v).
func (t *Triplet) Put(i, j int, v float64) {
	if i < 0 || i >= t.rows || j < 0 || j >= t.cols {
		panic(fmt.Sprintf("assembly: triplet index (%d,%d) out of range %dx%d", i, j, t.rows, t.cols))
	}
	t.is = append(t.is, i)
	t.js = append(t.js, j)
	t.vs = append(t.vs, v)
}

// Reset discards all entries, keeping capacity.
func (t *Triplet) Reset() {
	t.is = t.is[:0]
	t.js = t.js[:0]
	t.vs = t.vs[:0]
}

// ToDense sums all entries into a dense matrix. Intended for small systems
// and tests; large systems hand the triplets to a sparse solver instead.
func (t *Triplet) ToDense() *mat.Dense {
	d := mat.NewDense(t.rows, t.cols, nil)
	for k, v := range t.vs {
		i, j := t.is[k], t.js[k]
		d.Set(i, j, d.At(i, j)+v)
	}
	return d
}
