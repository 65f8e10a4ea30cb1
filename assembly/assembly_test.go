package assembly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/90jrong/moose/errors"
	"github.com/90jrong/moose/tag"
	"github.com/90jrong/moose/tagging"
)

func TestNew_Validation(t *testing.T) {
	reg := tag.NewRegistry()

	_, err := New(nil, 10)
	assert.Error(t, err)

	_, err = New(reg, 0)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))

	a, err := New(reg, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, a.NumDofs())
}

func TestAssembly_SatisfiesTaggingAssembly(t *testing.T) {
	reg := tag.NewRegistry()
	a, err := New(reg, 4)
	require.NoError(t, err)

	var _ tagging.Assembly = a
}

func TestResidualBlock_PersistsWithinElement(t *testing.T) {
	reg := tag.NewRegistry()
	a, err := New(reg, 6)
	require.NoError(t, err)

	nontime, _ := reg.VectorTagID(tag.NonTime)

	a.PrepareElement()
	a.SetElementDofs(0, []int{0, 1})

	b1 := a.ResidualBlock(0, nontime)
	b1.AddAt(0, 3)

	// A second kernel on the same element sees the accumulated block.
	b2 := a.ResidualBlock(0, nontime)
	assert.Same(t, b1, b2)
	assert.Equal(t, 3.0, b2.At(0))
}

func TestResidualBlock_RezeroedPerElement(t *testing.T) {
	reg := tag.NewRegistry()
	a, err := New(reg, 6)
	require.NoError(t, err)

	nontime, _ := reg.VectorTagID(tag.NonTime)

	a.PrepareElement()
	a.SetElementDofs(0, []int{0, 1})
	a.ResidualBlock(0, nontime).Fill(9)

	a.PrepareElement()
	a.SetElementDofs(0, []int{2, 3})
	b := a.ResidualBlock(0, nontime)
	assert.Equal(t, 0.0, b.At(0), "new element scope must start from zero")
	assert.Equal(t, 2, b.Len())
}

func TestBlockAccess_WithoutDofsPanics(t *testing.T) {
	reg := tag.NewRegistry()
	a, err := New(reg, 6)
	require.NoError(t, err)

	nontime, _ := reg.VectorTagID(tag.NonTime)
	system, _ := reg.MatrixTagID(tag.System)

	a.PrepareElement()
	assert.Panics(t, func() { a.ResidualBlock(0, nontime) })
	assert.Panics(t, func() { a.JacobianBlock(0, 0, system) })

	a.SetElementDofs(0, []int{0})
	assert.Panics(t, func() { a.JacobianBlock(0, 1, system) }, "column variable has no dofs")
	assert.Panics(t, func() { a.SetElementDofs(1, []int{99}) }, "dof out of range")
}

func TestScatterResidual_RoutesPerTag(t *testing.T) {
	reg := tag.NewRegistry()
	a, err := New(reg, 4)
	require.NoError(t, err)

	nontime, _ := reg.VectorTagID(tag.NonTime)
	timeID, _ := reg.VectorTagID(tag.Time)

	// Element 1 on dofs {0,1}: nontime gets 1s, time gets 10s.
	a.PrepareElement()
	a.SetElementDofs(0, []int{0, 1})
	a.ResidualBlock(0, nontime).Fill(1)
	a.ResidualBlock(0, timeID).Fill(10)
	a.ScatterResidual()

	// Element 2 on dofs {1,2}: only nontime touched.
	a.PrepareElement()
	a.SetElementDofs(0, []int{1, 2})
	a.ResidualBlock(0, nontime).Fill(1)
	a.ScatterResidual()

	rNontime, err := a.Residual(nontime)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 1, 0}, rNontime.Data())

	rTime, err := a.Residual(timeID)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 10, 0, 0}, rTime.Data(),
		"element 2 did not touch the time tag, so its dofs stay untouched")
}

func TestScatterJacobian_SumsOverlappingElements(t *testing.T) {
	reg := tag.NewRegistry()
	a, err := New(reg, 3)
	require.NoError(t, err)

	system, _ := reg.MatrixTagID(tag.System)

	for _, dofs := range [][]int{{0, 1}, {1, 2}} {
		a.PrepareElement()
		a.SetElementDofs(0, dofs)
		ke := a.JacobianBlock(0, 0, system)
		ke.Set(0, 0, 1)
		ke.Set(0, 1, -1)
		ke.Set(1, 0, -1)
		ke.Set(1, 1, 1)
		a.ScatterJacobian()
	}

	tr, err := a.Jacobian(system)
	require.NoError(t, err)
	k := tr.ToDense()

	// Classic 1D stiffness overlap: shared dof 1 sums to 2.
	assert.InDelta(t, 1.0, k.At(0, 0), 1e-14)
	assert.InDelta(t, 2.0, k.At(1, 1), 1e-14)
	assert.InDelta(t, 1.0, k.At(2, 2), 1e-14)
	assert.InDelta(t, -1.0, k.At(0, 1), 1e-14)
	assert.InDelta(t, -1.0, k.At(2, 1), 1e-14)
	assert.InDelta(t, 0.0, k.At(0, 2), 1e-14)
}

func TestGlobalAccessors_UnknownTag(t *testing.T) {
	reg := tag.NewRegistry()
	a, err := New(reg, 3)
	require.NoError(t, err)

	_, err = a.Residual(tag.ID(42))
	require.Error(t, err)
	assert.True(t, errors.IsLookup(err))

	_, err = a.Jacobian(tag.ID(42))
	assert.Error(t, err)
}

func TestZeroResidualsAndJacobians(t *testing.T) {
	reg := tag.NewRegistry()
	a, err := New(reg, 2)
	require.NoError(t, err)

	nontime, _ := reg.VectorTagID(tag.NonTime)
	system, _ := reg.MatrixTagID(tag.System)

	a.PrepareElement()
	a.SetElementDofs(0, []int{0, 1})
	a.ResidualBlock(0, nontime).Fill(1)
	a.JacobianBlock(0, 0, system).Fill(1)
	a.ScatterResidual()
	a.ScatterJacobian()

	a.ZeroResiduals()
	a.ZeroJacobians()

	r, _ := a.Residual(nontime)
	assert.Equal(t, []float64{0, 0}, r.Data())
	j, _ := a.Jacobian(system)
	assert.Equal(t, 0, j.Len())
}

func TestTriplet_Basics(t *testing.T) {
	tr := NewTriplet(2, 2)
	r, c := tr.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)

	tr.Put(0, 0, 1)
	tr.Put(0, 0, 2) // duplicate sums on conversion
	tr.Put(1, 0, 5)
	assert.Equal(t, 3, tr.Len())

	d := tr.ToDense()
	assert.Equal(t, 3.0, d.At(0, 0))
	assert.Equal(t, 5.0, d.At(1, 0))
	assert.Equal(t, 0.0, d.At(1, 1))

	assert.Panics(t, func() { tr.Put(2, 0, 1) })

	tr.Reset()
	assert.Equal(t, 0, tr.Len())
}

func TestEndToEnd_TaggingIntoAssembly(t *testing.T) {
	// Full path: Tagging prepares against the real Assembly, physics fills
	// the scratch buffer, commit accumulates into element blocks, scatter
	// pushes into tagged globals.
	reg := tag.NewRegistry()
	a, err := New(reg, 3)
	require.NoError(t, err)

	tg, err := tagging.New("diffusion", tagging.Config{
		VectorTags: []string{tag.NonTime, tag.Time},
		MatrixTags: []string{tag.System},
	}, reg)
	require.NoError(t, err)

	a.PrepareElement()
	a.SetElementDofs(0, []int{1, 2})

	tg.PrepareVector(a, 0)
	tg.LocalResidual().Fill(5.0)
	tg.AccumulateResidual()

	tg.PrepareMatrix(a, 0, 0)
	tg.LocalJacobian().Fill(1.5)
	tg.AccumulateJacobian()

	a.ScatterResidual()
	a.ScatterJacobian()

	nontime, _ := reg.VectorTagID(tag.NonTime)
	timeID, _ := reg.VectorTagID(tag.Time)
	system, _ := reg.MatrixTagID(tag.System)

	rNontime, _ := a.Residual(nontime)
	rTime, _ := a.Residual(timeID)
	assert.Equal(t, []float64{0, 5, 5}, rNontime.Data())
	assert.Equal(t, []float64{0, 5, 5}, rTime.Data())

	j, _ := a.Jacobian(system)
	k := j.ToDense()
	assert.Equal(t, 1.5, k.At(1, 1))
	assert.Equal(t, 1.5, k.At(2, 2))
	assert.Equal(t, 0.0, k.At(0, 0))
}
