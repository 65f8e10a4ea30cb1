// Package dense provides the dense vector and matrix blocks used for
// element-local contributions and their tagged destination containers.
//
// Blocks are thin wrappers over flat float64 storage with gonum interop.
// Resize reuses capacity where possible so the per-element prepare path does
// not allocate once buffers reach their working size.
package dense

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Vector is a dense vector block.
type Vector struct {
	data []float64
}

// NewVector creates a zeroed vector of length n.
func NewVector(n int) *Vector {
	return &Vector{data: make([]float64, n)}
}

// Len returns the vector length.
func (v *Vector) Len() int {
	return len(v.data)
}

// Resize sets the vector length to n, reusing capacity when available.
// Contents are unspecified after a resize; callers zero explicitly.
func (v *Vector) Resize(n int) {
	if cap(v.data) >= n {
		v.data = v.data[:n]
		return
	}
	v.data = make([]float64, n)
}

// Zero sets every entry to zero.
func (v *Vector) Zero() {
	for i := range v.data {
		v.data[i] = 0
	}
}

// At returns the i-th entry.
func (v *Vector) At(i int) float64 {
	return v.data[i]
}

// Set assigns the i-th entry.
func (v *Vector) Set(i int, x float64) {
	v.data[i] = x
}

// AddAt adds x to the i-th entry.
func (v *Vector) AddAt(i int, x float64) {
	v.data[i] += x
}

// Fill assigns x to every entry.
func (v *Vector) Fill(x float64) {
	for i := range v.data {
		v.data[i] = x
	}
}

// Scale multiplies every entry by alpha.
func (v *Vector) Scale(alpha float64) {
	floats.Scale(alpha, v.data)
}

// Add accumulates w into v elementwise. Lengths must match.
func (v *Vector) Add(w *Vector) {
	if len(v.data) != len(w.data) {
		panic(fmt.Sprintf("dense: vector length mismatch %d != %d", len(v.data), len(w.data)))
	}
	floats.Add(v.data, w.data)
}

// Assign overwrites v with w elementwise. Lengths must match.
func (v *Vector) Assign(w *Vector) {
	if len(v.data) != len(w.data) {
		panic(fmt.Sprintf("dense: vector length mismatch %d != %d", len(v.data), len(w.data)))
	}
	copy(v.data, w.data)
}

// Norm returns the Euclidean norm.
func (v *Vector) Norm() float64 {
	return floats.Norm(v.data, 2)
}

// Data returns the backing slice. Mutations are visible to the block.
func (v *Vector) Data() []float64 {
	return v.data
}

// Vec returns a gonum view sharing the backing storage.
// Panics for zero-length vectors, which gonum cannot represent.
func (v *Vector) Vec() *mat.VecDense {
	return mat.NewVecDense(len(v.data), v.data)
}

// Matrix is a dense row-major matrix block.
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix creates a zeroed r-by-c matrix.
func NewMatrix(r, c int) *Matrix {
	return &Matrix{rows: r, cols: c, data: make([]float64, r*c)}
}

// Dims returns the matrix dimensions.
func (m *Matrix) Dims() (r, c int) {
	return m.rows, m.cols
}

// Resize sets the matrix shape to r-by-c, reusing capacity when available.
// Contents are unspecified after a resize; callers zero explicitly.
func (m *Matrix) Resize(r, c int) {
	m.rows, m.cols = r, c
	if cap(m.data) >= r*c {
		m.data = m.data[:r*c]
		return
	}
	m.data = make([]float64, r*c)
}

// Zero sets every entry to zero.
func (m *Matrix) Zero() {
	for i := range m.data {
		m.data[i] = 0
	}
}

// At returns the (i, j) entry.
func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.cols+j]
}

// Set assigns the (i, j) entry.
func (m *Matrix) Set(i, j int, x float64) {
	m.data[i*m.cols+j] = x
}

// AddAt adds x to the (i, j) entry.
func (m *Matrix) AddAt(i, j int, x float64) {
	m.data[i*m.cols+j] += x
}

// Fill assigns x to every entry.
func (m *Matrix) Fill(x float64) {
	for i := range m.data {
		m.data[i] = x
	}
}

// Scale multiplies every entry by alpha.
func (m *Matrix) Scale(alpha float64) {
	floats.Scale(alpha, m.data)
}

// Add accumulates b into m elementwise. Shapes must match.
func (m *Matrix) Add(b *Matrix) {
	if m.rows != b.rows || m.cols != b.cols {
		panic(fmt.Sprintf("dense: matrix shape mismatch %dx%d != %dx%d", m.rows, m.cols, b.rows, b.cols))
	}
	floats.Add(m.data, b.data)
}

// Assign overwrites m with b elementwise. Shapes must match.
func (m *Matrix) Assign(b *Matrix) {
	if m.rows != b.rows || m.cols != b.cols {
		panic(fmt.Sprintf("dense: matrix shape mismatch %dx%d != %dx%d", m.rows, m.cols, b.rows, b.cols))
	}
	copy(m.data, b.data)
}

// Data returns the backing slice in row-major order.
func (m *Matrix) Data() []float64 {
	return m.data
}

// Dense returns a gonum view sharing the backing storage.
// Panics for empty matrices, which gonum cannot represent.
func (m *Matrix) Dense() *mat.Dense {
	return mat.NewDense(m.rows, m.cols, m.data)
}
