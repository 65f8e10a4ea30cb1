// Package assembly provides the in-memory assembly provider: tag-indexed
// element destination blocks and the tagged global containers they scatter
// into.
//
// Within one element, blocks returned by ResidualBlock and JacobianBlock
// persist across computations so multiple kernels sum into the same block
// before a single scatter. PrepareElement starts the next element scope and
// lazily re-zeroes blocks on first access. Scatter pushes every block
// touched in the current scope into the global vector or triplet matrix for
// its tag, using the element's DOF index map.
//
// An Assembly instance is single-writer; parallel assembly uses one
// instance per worker and reduces the global containers afterwards.
package assembly

import (
	"fmt"

	"github.com/90jrong/moose/dense"
	"github.com/90jrong/moose/errors"
	"github.com/90jrong/moose/metric"
	"github.com/90jrong/moose/tag"
)

type resKey struct {
	ivar  int
	tagID tag.ID
}

type jacKey struct {
	ivar, jvar int
	tagID      tag.ID
}

type elemVector struct {
	gen   uint64
	block *dense.Vector
}

type elemMatrix struct {
	gen   uint64
	block *dense.Matrix
}

// Option configures optional Assembly behavior.
type Option func(*Assembly)

// WithMetrics enables scatter metrics on the given registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(a *Assembly) {
		if registry != nil {
			a.metrics = registry.CoreMetrics()
		}
	}
}

// Assembly owns the destination blocks and global containers for one
// assembly worker.
type Assembly struct {
	registry *tag.Registry
	ndofs    int

	// Tagged global containers, created on first scatter or access.
	residuals map[tag.ID]*dense.Vector
	jacobians map[tag.ID]*Triplet

	// Element scope. gen identifies the current element; blocks with a
	// stale gen are resized and zeroed on first access.
	gen       uint64
	elemDofs  map[int][]int
	resBlocks map[resKey]*elemVector
	jacBlocks map[jacKey]*elemMatrix

	metrics *metric.Metrics
}

// New creates an assembly provider for a system with ndofs global degrees
// of freedom, resolving tags against registry.
func New(registry *tag.Registry, ndofs int, opts ...Option) (*Assembly, error) {
	if registry == nil {
		return nil, errors.WrapInternal(
			fmt.Errorf("tag registry cannot be nil"),
			"Assembly", "New", "registry validation")
	}
	if ndofs <= 0 {
		return nil, errors.WrapConfiguration(
			fmt.Errorf("system size %d: %w", ndofs, errors.ErrInvalidConfig),
			"Assembly", "New", "system size validation")
	}

	a := &Assembly{
		registry:  registry,
		ndofs:     ndofs,
		residuals: make(map[tag.ID]*dense.Vector),
		jacobians: make(map[tag.ID]*Triplet),
		elemDofs:  make(map[int][]int),
		resBlocks: make(map[resKey]*elemVector),
		jacBlocks: make(map[jacKey]*elemMatrix),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// NumDofs returns the global system size.
func (a *Assembly) NumDofs() int {
	return a.ndofs
}

// PrepareElement starts a new element scope, invalidating all element
// blocks and DOF maps from the previous element.
func (a *Assembly) PrepareElement() {
	a.gen++
	clear(a.elemDofs)
}

// SetElementDofs declares the global DOF indices of a variable on the
// current element. Must be called after PrepareElement and before any block
// access for that variable.
func (a *Assembly) SetElementDofs(ivar int, dofs []int) {
	for _, d := range dofs {
		if d < 0 || d >= a.ndofs {
			panic(fmt.Sprintf("assembly: dof index %d out of range for system size %d", d, a.ndofs))
		}
	}
	a.elemDofs[ivar] = dofs
}

// ElementDofs returns the DOF indices declared for a variable on the
// current element.
func (a *Assembly) ElementDofs(ivar int) []int {
	return a.elemDofs[ivar]
}

// ResidualBlock returns the residual destination block for a variable and
// vector tag on the current element, creating and zeroing it on first
// access within the element scope. Blocks for all tags of the same variable
// share one shape, sized by the variable's DOF count.
func (a *Assembly) ResidualBlock(ivar int, tagID tag.ID) *dense.Vector {
	dofs, ok := a.elemDofs[ivar]
	if !ok {
		panic(fmt.Sprintf("assembly: ResidualBlock for variable %d without SetElementDofs", ivar))
	}

	key := resKey{ivar: ivar, tagID: tagID}
	ev, exists := a.resBlocks[key]
	if !exists {
		ev = &elemVector{block: dense.NewVector(len(dofs))}
		a.resBlocks[key] = ev
	}
	if ev.gen != a.gen {
		ev.gen = a.gen
		ev.block.Resize(len(dofs))
		ev.block.Zero()
	}
	return ev.block
}

// JacobianBlock returns the Jacobian destination block for a variable pair
// and matrix tag on the current element, creating and zeroing it on first
// access within the element scope.
func (a *Assembly) JacobianBlock(ivar, jvar int, tagID tag.ID) *dense.Matrix {
	rowDofs, ok := a.elemDofs[ivar]
	if !ok {
		panic(fmt.Sprintf("assembly: JacobianBlock for row variable %d without SetElementDofs", ivar))
	}
	colDofs, ok := a.elemDofs[jvar]
	if !ok {
		panic(fmt.Sprintf("assembly: JacobianBlock for column variable %d without SetElementDofs", jvar))
	}

	key := jacKey{ivar: ivar, jvar: jvar, tagID: tagID}
	em, exists := a.jacBlocks[key]
	if !exists {
		em = &elemMatrix{block: dense.NewMatrix(len(rowDofs), len(colDofs))}
		a.jacBlocks[key] = em
	}
	if em.gen != a.gen {
		em.gen = a.gen
		em.block.Resize(len(rowDofs), len(colDofs))
		em.block.Zero()
	}
	return em.block
}

// ScatterResidual adds every residual block touched in the current element
// scope into the global vector for its tag.
func (a *Assembly) ScatterResidual() {
	entries := 0
	for key, ev := range a.resBlocks {
		if ev.gen != a.gen {
			continue
		}
		global := a.globalResidual(key.tagID)
		dofs := a.elemDofs[key.ivar]
		for i, d := range dofs {
			global.AddAt(d, ev.block.At(i))
		}
		entries += len(dofs)
	}
	if a.metrics != nil {
		a.metrics.RecordEntriesScattered("residual", entries)
	}
}

// ScatterJacobian appends every Jacobian block touched in the current
// element scope to the triplet accumulator for its tag.
func (a *Assembly) ScatterJacobian() {
	entries := 0
	for key, em := range a.jacBlocks {
		if em.gen != a.gen {
			continue
		}
		global := a.globalJacobian(key.tagID)
		rowDofs := a.elemDofs[key.ivar]
		colDofs := a.elemDofs[key.jvar]
		for i, di := range rowDofs {
			for j, dj := range colDofs {
				global.Put(di, dj, em.block.At(i, j))
			}
		}
		entries += len(rowDofs) * len(colDofs)
	}
	if a.metrics != nil {
		a.metrics.RecordEntriesScattered("jacobian", entries)
	}
}

// Residual returns the global residual vector for a vector tag.
func (a *Assembly) Residual(tagID tag.ID) (*dense.Vector, error) {
	if !a.registry.VectorTagIDExists(tagID) {
		return nil, errors.WrapLookup(
			fmt.Errorf("vector tag ID %d: %w", tagID, errors.ErrUnknownVectorTag),
			"Assembly", "Residual", "tag lookup")
	}
	return a.globalResidual(tagID), nil
}

// Jacobian returns the global triplet accumulator for a matrix tag.
func (a *Assembly) Jacobian(tagID tag.ID) (*Triplet, error) {
	if !a.registry.MatrixTagIDExists(tagID) {
		return nil, errors.WrapLookup(
			fmt.Errorf("matrix tag ID %d: %w", tagID, errors.ErrUnknownMatrixTag),
			"Assembly", "Jacobian", "tag lookup")
	}
	return a.globalJacobian(tagID), nil
}

// ZeroResiduals zeroes every tagged global residual vector, starting a new
// nonlinear iteration.
func (a *Assembly) ZeroResiduals() {
	for _, v := range a.residuals {
		v.Zero()
	}
}

// ZeroJacobians discards every tagged triplet accumulator's entries.
func (a *Assembly) ZeroJacobians() {
	for _, t := range a.jacobians {
		t.Reset()
	}
}

func (a *Assembly) globalResidual(tagID tag.ID) *dense.Vector {
	v, ok := a.residuals[tagID]
	if !ok {
		v = dense.NewVector(a.ndofs)
		a.residuals[tagID] = v
	}
	return v
}

func (a *Assembly) globalJacobian(tagID tag.ID) *Triplet {
	t, ok := a.jacobians[tagID]
	if !ok {
		t = NewTriplet(a.ndofs, a.ndofs)
		a.jacobians[tagID] = t
	}
	return t
}
