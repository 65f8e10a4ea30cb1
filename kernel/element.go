package kernel

import (
	"math"
	"slices"
)

// Element carries the quadrature data of one mesh element plus the per
// variable DOF maps and nodal coefficients kernels interpolate from.
//
// Shape data is indexed [qp][node]. For the 1D linear elements produced by
// Line1D there are two nodes and two Gauss points.
type Element struct {
	ID int

	// JxW is quadrature weight times Jacobian determinant per point.
	JxW []float64
	// Phi holds shape function values, GradPhi their physical derivatives.
	Phi     [][]float64
	GradPhi [][]float64
	// X is the physical coordinate of each quadrature point.
	X []float64

	dofs     map[int][]int
	nodal    map[int][]float64
	nodalOld map[int][]float64
}

// NumNodes returns the number of element nodes.
func (e *Element) NumNodes() int {
	if len(e.Phi) == 0 {
		return 0
	}
	return len(e.Phi[0])
}

// NumQP returns the number of quadrature points.
func (e *Element) NumQP() int {
	return len(e.JxW)
}

// SetVariable declares a variable's global DOF indices and current nodal
// values on this element.
func (e *Element) SetVariable(ivar int, dofs []int, nodal []float64) {
	if e.dofs == nil {
		e.dofs = make(map[int][]int)
		e.nodal = make(map[int][]float64)
	}
	e.dofs[ivar] = dofs
	e.nodal[ivar] = nodal
}

// SetVariableOld declares a variable's previous-step nodal values, used by
// time-derivative kernels.
func (e *Element) SetVariableOld(ivar int, nodal []float64) {
	if e.nodalOld == nil {
		e.nodalOld = make(map[int][]float64)
	}
	e.nodalOld[ivar] = nodal
}

// Variables returns the variable indices declared on this element,
// ascending.
func (e *Element) Variables() []int {
	vars := make([]int, 0, len(e.dofs))
	for ivar := range e.dofs {
		vars = append(vars, ivar)
	}
	slices.Sort(vars)
	return vars
}

// Dofs returns the global DOF indices of a variable on this element.
func (e *Element) Dofs(ivar int) []int {
	return e.dofs[ivar]
}

// Value interpolates a variable at a quadrature point.
func (e *Element) Value(ivar, qp int) float64 {
	u := 0.0
	for i, c := range e.nodal[ivar] {
		u += c * e.Phi[qp][i]
	}
	return u
}

// ValueOld interpolates a variable's previous-step value at a quadrature
// point.
func (e *Element) ValueOld(ivar, qp int) float64 {
	u := 0.0
	for i, c := range e.nodalOld[ivar] {
		u += c * e.Phi[qp][i]
	}
	return u
}

// Gradient interpolates a variable's spatial derivative at a quadrature
// point.
func (e *Element) Gradient(ivar, qp int) float64 {
	g := 0.0
	for i, c := range e.nodal[ivar] {
		g += c * e.GradPhi[qp][i]
	}
	return g
}

// Line1D builds a uniform 1D mesh of linear two-node elements on
// [0, length] with two-point Gauss quadrature. Node i sits at i*h; element
// k spans nodes k and k+1. Variable data is declared separately via
// SetVariable.
func Line1D(nelem int, length float64) []*Element {
	h := length / float64(nelem)
	gp := 1.0 / math.Sqrt(3.0) // two-point Gauss abscissa on [-1, 1]

	elems := make([]*Element, nelem)
	for k := 0; k < nelem; k++ {
		x0 := float64(k) * h

		e := &Element{
			ID:      k,
			JxW:     make([]float64, 2),
			Phi:     make([][]float64, 2),
			GradPhi: make([][]float64, 2),
			X:       make([]float64, 2),
		}
		for qp, xi := range []float64{-gp, gp} {
			e.JxW[qp] = h / 2.0 // unit weights
			e.Phi[qp] = []float64{(1 - xi) / 2, (1 + xi) / 2}
			e.GradPhi[qp] = []float64{-1 / h, 1 / h}
			e.X[qp] = x0 + (xi+1)/2*h
		}
		elems[k] = e
	}
	return elems
}
