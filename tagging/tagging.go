package tagging

import (
	"fmt"
	"slices"

	"github.com/90jrong/moose/dense"
	"github.com/90jrong/moose/errors"
	"github.com/90jrong/moose/metric"
	"github.com/90jrong/moose/tag"
)

// Assembly provides mutable destination blocks for tagged contributions.
// The returned references stay valid until the provider's next element
// preparation; Tagging only holds them between a Prepare call and the
// matching commit.
//
// All blocks returned for the same variable (or variable pair) within one
// Prepare call must be shape-homogeneous; Tagging sizes its scratch buffer
// from the first bound block and does not verify the rest.
type Assembly interface {
	ResidualBlock(ivar int, tagID tag.ID) *dense.Vector
	JacobianBlock(ivar, jvar int, tagID tag.ID) *dense.Matrix
}

// Option configures optional Tagging behavior.
type Option func(*Tagging)

// WithMetrics enables commit and active-tag metrics on the given registry.
func WithMetrics(registry *metric.MetricsRegistry) Option {
	return func(t *Tagging) {
		if registry != nil {
			t.metrics = registry.CoreMetrics()
		}
	}
}

// Tagging is the tag-routing capability of one computation instance.
// It is not safe for concurrent use; parallel assembly uses one instance
// per worker.
type Tagging struct {
	name     string
	registry *tag.Registry

	vectorTags map[tag.ID]struct{}
	matrixTags map[tag.ID]struct{}

	// Active tag IDs in ascending order; block binding order follows this.
	orderedVectorTags []tag.ID
	orderedMatrixTags []tag.ID

	residualBlocks []*dense.Vector
	jacobianBlocks []*dense.Matrix

	localResidual dense.Vector
	localJacobian dense.Matrix

	metrics *metric.Metrics
}

// New creates the tagging capability for the named computation, resolving
// the configured tag selections against registry. The name appears in every
// error so misconfigured computations are identifiable.
func New(name string, cfg Config, registry *tag.Registry, opts ...Option) (*Tagging, error) {
	if registry == nil {
		return nil, errors.WrapInternal(
			fmt.Errorf("tag registry cannot be nil for %q", name),
			"Tagging", "New", "registry validation")
	}

	t := &Tagging{
		name:       name,
		registry:   registry,
		vectorTags: make(map[tag.ID]struct{}),
		matrixTags: make(map[tag.ID]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	if len(cfg.VectorTags) == 0 {
		return nil, errors.WrapConfiguration(
			fmt.Errorf("computation %q: %w", name, errors.ErrNoVectorTags),
			"Tagging", "New", "vector tag selection")
	}
	if len(cfg.MatrixTags) == 0 {
		return nil, errors.WrapConfiguration(
			fmt.Errorf("computation %q: %w", name, errors.ErrNoMatrixTags),
			"Tagging", "New", "matrix tag selection")
	}

	for _, tagName := range cfg.VectorTags {
		id, err := registry.VectorTagID(tagName)
		if err != nil {
			return nil, errors.WrapLookup(
				fmt.Errorf("computation %q: %w", name, err),
				"Tagging", "New", "vector tag resolution")
		}
		t.vectorTags[id] = struct{}{}
	}

	// Extra tags must already exist in the registry; they are merged into
	// the active set, never created here.
	for _, tagName := range cfg.ExtraVectorTags {
		id, err := registry.VectorTagID(tagName)
		if err != nil {
			return nil, errors.WrapLookup(
				fmt.Errorf("computation %q: %w", name, err),
				"Tagging", "New", "extra vector tag resolution")
		}
		t.vectorTags[id] = struct{}{}
	}

	for _, tagName := range cfg.MatrixTags {
		id, err := registry.MatrixTagID(tagName)
		if err != nil {
			return nil, errors.WrapLookup(
				fmt.Errorf("computation %q: %w", name, err),
				"Tagging", "New", "matrix tag resolution")
		}
		t.matrixTags[id] = struct{}{}
	}

	for _, tagName := range cfg.ExtraMatrixTags {
		id, err := registry.MatrixTagID(tagName)
		if err != nil {
			return nil, errors.WrapLookup(
				fmt.Errorf("computation %q: %w", name, err),
				"Tagging", "New", "extra matrix tag resolution")
		}
		t.matrixTags[id] = struct{}{}
	}

	t.rebuildVectorOrder()
	t.rebuildMatrixOrder()
	return t, nil
}

// Name returns the owning computation's name.
func (t *Tagging) Name() string {
	return t.name
}

// VectorTags returns the active vector tag IDs in ascending order.
func (t *Tagging) VectorTags() []tag.ID {
	return slices.Clone(t.orderedVectorTags)
}

// MatrixTags returns the active matrix tag IDs in ascending order.
func (t *Tagging) MatrixTags() []tag.ID {
	return slices.Clone(t.orderedMatrixTags)
}

// UseVectorTag adds the named vector tag to the active set. Adding an
// already-active tag is a no-op.
func (t *Tagging) UseVectorTag(name string) error {
	id, err := t.registry.VectorTagID(name)
	if err != nil {
		return errors.WrapLookup(
			fmt.Errorf("computation %q: %w", t.name, err),
			"Tagging", "UseVectorTag", "tag resolution")
	}
	t.addVectorTag(id)
	return nil
}

// UseVectorTagID adds a vector tag to the active set by raw ID. Adding an
// already-active tag is a no-op.
func (t *Tagging) UseVectorTagID(id tag.ID) error {
	if !t.registry.VectorTagIDExists(id) {
		return errors.WrapLookup(
			fmt.Errorf("computation %q: vector tag ID %d: %w",
				t.name, id, errors.ErrUnknownVectorTag),
			"Tagging", "UseVectorTagID", "tag resolution")
	}
	t.addVectorTag(id)
	return nil
}

// UseMatrixTag adds the named matrix tag to the active set. Adding an
// already-active tag is a no-op.
func (t *Tagging) UseMatrixTag(name string) error {
	id, err := t.registry.MatrixTagID(name)
	if err != nil {
		return errors.WrapLookup(
			fmt.Errorf("computation %q: %w", t.name, err),
			"Tagging", "UseMatrixTag", "tag resolution")
	}
	t.addMatrixTag(id)
	return nil
}

// UseMatrixTagID adds a matrix tag to the active set by raw ID. Adding an
// already-active tag is a no-op.
func (t *Tagging) UseMatrixTagID(id tag.ID) error {
	if !t.registry.MatrixTagIDExists(id) {
		return errors.WrapLookup(
			fmt.Errorf("computation %q: matrix tag ID %d: %w",
				t.name, id, errors.ErrUnknownMatrixTag),
			"Tagging", "UseMatrixTagID", "tag resolution")
	}
	t.addMatrixTag(id)
	return nil
}

func (t *Tagging) addVectorTag(id tag.ID) {
	if _, active := t.vectorTags[id]; active {
		return
	}
	t.vectorTags[id] = struct{}{}
	t.rebuildVectorOrder()
}

func (t *Tagging) addMatrixTag(id tag.ID) {
	if _, active := t.matrixTags[id]; active {
		return
	}
	t.matrixTags[id] = struct{}{}
	t.rebuildMatrixOrder()
}

// rebuildVectorOrder refreshes the ordered tag list and resets the binding
// array to the new set size. Bindings are only populated by PrepareVector.
func (t *Tagging) rebuildVectorOrder() {
	t.orderedVectorTags = t.orderedVectorTags[:0]
	for id := range t.vectorTags {
		t.orderedVectorTags = append(t.orderedVectorTags, id)
	}
	slices.Sort(t.orderedVectorTags)

	t.residualBlocks = make([]*dense.Vector, 0, len(t.orderedVectorTags))
	if t.metrics != nil {
		t.metrics.RecordActiveTags(t.name, "vector", len(t.orderedVectorTags))
	}
}

func (t *Tagging) rebuildMatrixOrder() {
	t.orderedMatrixTags = t.orderedMatrixTags[:0]
	for id := range t.matrixTags {
		t.orderedMatrixTags = append(t.orderedMatrixTags, id)
	}
	slices.Sort(t.orderedMatrixTags)

	t.jacobianBlocks = make([]*dense.Matrix, 0, len(t.orderedMatrixTags))
	if t.metrics != nil {
		t.metrics.RecordActiveTags(t.name, "matrix", len(t.orderedMatrixTags))
	}
}

// PrepareVector binds one residual destination block per active vector tag
// for the given variable, then sizes and zeroes the local residual scratch
// buffer. Prior bindings and scratch contents are discarded.
func (t *Tagging) PrepareVector(asm Assembly, ivar int) {
	if len(t.orderedVectorTags) == 0 {
		panic(fmt.Sprintf("tagging: %s: PrepareVector with empty active vector tag set", t.name))
	}

	t.residualBlocks = t.residualBlocks[:0]
	for _, id := range t.orderedVectorTags {
		t.residualBlocks = append(t.residualBlocks, asm.ResidualBlock(ivar, id))
	}

	t.localResidual.Resize(t.residualBlocks[0].Len())
	t.localResidual.Zero()
}

// PrepareMatrix binds one Jacobian destination block per active matrix tag
// for the given variable pair, then sizes and zeroes the local Jacobian
// scratch buffer. Prior bindings and scratch contents are discarded.
func (t *Tagging) PrepareMatrix(asm Assembly, ivar, jvar int) {
	if len(t.orderedMatrixTags) == 0 {
		panic(fmt.Sprintf("tagging: %s: PrepareMatrix with empty active matrix tag set", t.name))
	}

	t.jacobianBlocks = t.jacobianBlocks[:0]
	for _, id := range t.orderedMatrixTags {
		t.jacobianBlocks = append(t.jacobianBlocks, asm.JacobianBlock(ivar, jvar, id))
	}

	r, c := t.jacobianBlocks[0].Dims()
	t.localJacobian.Resize(r, c)
	t.localJacobian.Zero()
}

// LocalResidual returns the residual scratch buffer for physics code to
// fill between PrepareVector and a residual commit.
func (t *Tagging) LocalResidual() *dense.Vector {
	return &t.localResidual
}

// LocalJacobian returns the Jacobian scratch buffer for physics code to
// fill between PrepareMatrix and a Jacobian commit.
func (t *Tagging) LocalJacobian() *dense.Matrix {
	return &t.localJacobian
}

// NumResidualBlocks returns the number of currently bound residual blocks.
func (t *Tagging) NumResidualBlocks() int {
	return len(t.residualBlocks)
}

// NumJacobianBlocks returns the number of currently bound Jacobian blocks.
func (t *Tagging) NumJacobianBlocks() int {
	return len(t.jacobianBlocks)
}

// AccumulateResidual adds the local residual scratch buffer into every
// bound destination block.
func (t *Tagging) AccumulateResidual() {
	t.mustBeBoundVector("AccumulateResidual")
	for _, re := range t.residualBlocks {
		re.Add(&t.localResidual)
	}
	if t.metrics != nil {
		t.metrics.RecordResidualCommit(t.name, "accumulate", len(t.residualBlocks))
	}
}

// AssignResidual overwrites every bound destination block with the local
// residual scratch buffer.
func (t *Tagging) AssignResidual() {
	t.mustBeBoundVector("AssignResidual")
	for _, re := range t.residualBlocks {
		re.Assign(&t.localResidual)
	}
	if t.metrics != nil {
		t.metrics.RecordResidualCommit(t.name, "assign", len(t.residualBlocks))
	}
}

// AccumulateJacobian adds the local Jacobian scratch buffer into every
// bound destination block.
func (t *Tagging) AccumulateJacobian() {
	t.mustBeBoundMatrix("AccumulateJacobian")
	for _, ke := range t.jacobianBlocks {
		ke.Add(&t.localJacobian)
	}
	if t.metrics != nil {
		t.metrics.RecordJacobianCommit(t.name, "accumulate", len(t.jacobianBlocks))
	}
}

// AssignJacobian overwrites every bound destination block with the local
// Jacobian scratch buffer.
func (t *Tagging) AssignJacobian() {
	t.mustBeBoundMatrix("AssignJacobian")
	for _, ke := range t.jacobianBlocks {
		ke.Assign(&t.localJacobian)
	}
	if t.metrics != nil {
		t.metrics.RecordJacobianCommit(t.name, "assign", len(t.jacobianBlocks))
	}
}

func (t *Tagging) mustBeBoundVector(op string) {
	if len(t.residualBlocks) == 0 {
		panic(fmt.Sprintf("tagging: %s: %s without a preceding PrepareVector", t.name, op))
	}
}

func (t *Tagging) mustBeBoundMatrix(op string) {
	if len(t.jacobianBlocks) == 0 {
		panic(fmt.Sprintf("tagging: %s: %s without a preceding PrepareMatrix", t.name, op))
	}
}
