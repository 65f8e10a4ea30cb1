package tagging

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/90jrong/moose/dense"
	"github.com/90jrong/moose/errors"
	"github.com/90jrong/moose/metric"
	"github.com/90jrong/moose/tag"
)

// fakeAssembly hands out destination blocks keyed by variable and tag and
// records the order in which tags are requested.
type fakeAssembly struct {
	size       int
	resBlocks  map[[2]int]*dense.Vector
	jacBlocks  map[[3]int]*dense.Matrix
	boundOrder []tag.ID
}

func newFakeAssembly(size int) *fakeAssembly {
	return &fakeAssembly{
		size:      size,
		resBlocks: make(map[[2]int]*dense.Vector),
		jacBlocks: make(map[[3]int]*dense.Matrix),
	}
}

func (f *fakeAssembly) ResidualBlock(ivar int, tagID tag.ID) *dense.Vector {
	f.boundOrder = append(f.boundOrder, tagID)
	key := [2]int{ivar, int(tagID)}
	if b, ok := f.resBlocks[key]; ok {
		return b
	}
	b := dense.NewVector(f.size)
	f.resBlocks[key] = b
	return b
}

func (f *fakeAssembly) JacobianBlock(ivar, jvar int, tagID tag.ID) *dense.Matrix {
	key := [3]int{ivar, jvar, int(tagID)}
	if b, ok := f.jacBlocks[key]; ok {
		return b
	}
	b := dense.NewMatrix(f.size, f.size)
	f.jacBlocks[key] = b
	return b
}

func (f *fakeAssembly) residual(ivar int, tagID tag.ID) *dense.Vector {
	return f.resBlocks[[2]int{ivar, int(tagID)}]
}

func (f *fakeAssembly) jacobian(ivar, jvar int, tagID tag.ID) *dense.Matrix {
	return f.jacBlocks[[3]int{ivar, jvar, int(tagID)}]
}

func TestNew_ResolvesConfiguredTags(t *testing.T) {
	reg := tag.NewRegistry()

	tg, err := New("diffusion", Config{
		VectorTags: []string{tag.NonTime, tag.Time, tag.NonTime}, // duplicate collapses
		MatrixTags: []string{tag.System},
	}, reg)
	require.NoError(t, err)

	nontime, err := reg.VectorTagID(tag.NonTime)
	require.NoError(t, err)
	timeID, err := reg.VectorTagID(tag.Time)
	require.NoError(t, err)
	system, err := reg.MatrixTagID(tag.System)
	require.NoError(t, err)

	assert.Equal(t, []tag.ID{nontime, timeID}, tg.VectorTags())
	assert.Equal(t, []tag.ID{system}, tg.MatrixTags())
}

func TestNew_ExtraTagsMergeIntoActiveSet(t *testing.T) {
	reg := tag.NewRegistry()
	refID, err := reg.RegisterVectorTag("ref")
	require.NoError(t, err)

	tg, err := New("diffusion", Config{
		VectorTags:      []string{tag.NonTime},
		MatrixTags:      []string{tag.System},
		ExtraVectorTags: []string{"ref", tag.NonTime}, // overlap collapses
	}, reg)
	require.NoError(t, err)

	assert.Len(t, tg.VectorTags(), 2)
	assert.Contains(t, tg.VectorTags(), refID)
}

func TestNew_EmptySelectionsFail(t *testing.T) {
	reg := tag.NewRegistry()

	_, err := New("broken", Config{MatrixTags: []string{tag.System}}, reg)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.ErrorIs(t, err, errors.ErrNoVectorTags)
	assert.Contains(t, err.Error(), "broken", "error should name the owning computation")

	_, err = New("broken", Config{VectorTags: []string{tag.NonTime}}, reg)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoMatrixTags)
}

func TestNew_UnknownTagsFail(t *testing.T) {
	reg := tag.NewRegistry()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown vector tag", Config{
			VectorTags: []string{"missing"}, MatrixTags: []string{tag.System}}},
		{"unknown matrix tag", Config{
			VectorTags: []string{tag.NonTime}, MatrixTags: []string{"missing"}}},
		{"unknown extra vector tag", Config{
			VectorTags: []string{tag.NonTime}, MatrixTags: []string{tag.System},
			ExtraVectorTags: []string{"missing"}}},
		{"unknown extra matrix tag", Config{
			VectorTags: []string{tag.NonTime}, MatrixTags: []string{tag.System},
			ExtraMatrixTags: []string{"missing"}}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := New("broken", test.cfg, reg)
			require.Error(t, err)
			assert.True(t, errors.IsLookup(err))
			assert.Contains(t, err.Error(), "broken")
		})
	}
}

func TestUseVectorTag_UnknownLeavesSetUnchanged(t *testing.T) {
	reg := tag.NewRegistry()
	tg, err := New("diffusion", DefaultConfig(), reg)
	require.NoError(t, err)

	before := tg.VectorTags()

	err = tg.UseVectorTag("missing")
	require.Error(t, err)
	assert.True(t, errors.IsLookup(err))
	assert.Equal(t, before, tg.VectorTags())

	err = tg.UseVectorTagID(tag.ID(42))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownVectorTag)
	assert.Equal(t, before, tg.VectorTags())

	err = tg.UseMatrixTag("time") // vector-only builtin
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownMatrixTag)

	err = tg.UseMatrixTagID(tag.ID(42))
	require.Error(t, err)
}

func TestUseVectorTag_Idempotent(t *testing.T) {
	reg := tag.NewRegistry()
	tg, err := New("diffusion", DefaultConfig(), reg)
	require.NoError(t, err)
	require.Len(t, tg.VectorTags(), 1)

	require.NoError(t, tg.UseVectorTag(tag.Time))
	assert.Len(t, tg.VectorTags(), 2)

	require.NoError(t, tg.UseVectorTag(tag.Time))
	assert.Len(t, tg.VectorTags(), 2, "re-adding an active tag must not grow the set")

	timeID, err := reg.VectorTagID(tag.Time)
	require.NoError(t, err)
	require.NoError(t, tg.UseVectorTagID(timeID))
	assert.Len(t, tg.VectorTags(), 2)

	require.NoError(t, tg.UseMatrixTag(tag.NonTime))
	require.NoError(t, tg.UseMatrixTag(tag.NonTime))
	assert.Len(t, tg.MatrixTags(), 2)
}

func TestPrepareVector_BindsAndZeroes(t *testing.T) {
	reg := tag.NewRegistry()
	asm := newFakeAssembly(4)

	tg, err := New("diffusion", Config{
		VectorTags: []string{tag.NonTime, tag.Time},
		MatrixTags: []string{tag.System},
	}, reg)
	require.NoError(t, err)

	tg.PrepareVector(asm, 0)

	assert.Equal(t, 2, tg.NumResidualBlocks())
	re := tg.LocalResidual()
	require.Equal(t, 4, re.Len())
	for i := 0; i < re.Len(); i++ {
		assert.Zero(t, re.At(i))
	}
}

func TestPrepareVector_RezeroesScratch(t *testing.T) {
	reg := tag.NewRegistry()
	asm := newFakeAssembly(3)

	tg, err := New("diffusion", DefaultConfig(), reg)
	require.NoError(t, err)

	tg.PrepareVector(asm, 0)
	tg.LocalResidual().Fill(9)

	// A second prepare discards scratch contents unconditionally.
	tg.PrepareVector(asm, 0)
	for i := 0; i < tg.LocalResidual().Len(); i++ {
		assert.Zero(t, tg.LocalResidual().At(i))
	}
}

func TestAccumulateResidual_AddsIntoEveryBlock(t *testing.T) {
	reg := tag.NewRegistry()
	asm := newFakeAssembly(3)

	tg, err := New("diffusion", Config{
		VectorTags: []string{tag.NonTime, tag.Time},
		MatrixTags: []string{tag.System},
	}, reg)
	require.NoError(t, err)

	nontime, _ := reg.VectorTagID(tag.NonTime)
	timeID, _ := reg.VectorTagID(tag.Time)

	tg.PrepareVector(asm, 0)
	asm.residual(0, nontime).Fill(1) // pre-existing contribution

	tg.LocalResidual().Fill(2.5)
	tg.AccumulateResidual()
	tg.AccumulateResidual()

	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1+2*2.5, asm.residual(0, nontime).At(i), 1e-14)
		assert.InDelta(t, 2*2.5, asm.residual(0, timeID).At(i), 1e-14)
	}
}

func TestAssignResidual_OverwritesEveryBlock(t *testing.T) {
	reg := tag.NewRegistry()
	asm := newFakeAssembly(3)

	tg, err := New("constraint", DefaultConfig(), reg)
	require.NoError(t, err)

	nontime, _ := reg.VectorTagID(tag.NonTime)

	tg.PrepareVector(asm, 0)
	asm.residual(0, nontime).Fill(77) // prior value is discarded

	tg.LocalResidual().Fill(3)
	tg.AssignResidual()

	for i := 0; i < 3; i++ {
		assert.Equal(t, 3.0, asm.residual(0, nontime).At(i))
	}
}

func TestPrepareMatrix_BindsAndZeroes(t *testing.T) {
	reg := tag.NewRegistry()
	asm := newFakeAssembly(3)

	tg, err := New("diffusion", Config{
		VectorTags: []string{tag.NonTime},
		MatrixTags: []string{tag.System, tag.NonTime},
	}, reg)
	require.NoError(t, err)

	tg.PrepareMatrix(asm, 0, 1)

	assert.Equal(t, 2, tg.NumJacobianBlocks())
	r, c := tg.LocalJacobian().Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	for _, v := range tg.LocalJacobian().Data() {
		assert.Zero(t, v)
	}
}

func TestJacobianCommits(t *testing.T) {
	reg := tag.NewRegistry()
	asm := newFakeAssembly(2)

	tg, err := New("diffusion", Config{
		VectorTags: []string{tag.NonTime},
		MatrixTags: []string{tag.System, tag.NonTime},
	}, reg)
	require.NoError(t, err)

	system, _ := reg.MatrixTagID(tag.System)
	nontime, _ := reg.MatrixTagID(tag.NonTime)

	tg.PrepareMatrix(asm, 0, 0)
	asm.jacobian(0, 0, system).Fill(1)

	tg.LocalJacobian().Fill(0.5)
	tg.AccumulateJacobian()
	tg.AccumulateJacobian()

	assert.InDelta(t, 2.0, asm.jacobian(0, 0, system).At(0, 0), 1e-14)
	assert.InDelta(t, 1.0, asm.jacobian(0, 0, nontime).At(1, 1), 1e-14)

	tg.AssignJacobian()
	assert.Equal(t, 0.5, asm.jacobian(0, 0, system).At(0, 0))
	assert.Equal(t, 0.5, asm.jacobian(0, 0, nontime).At(0, 1))
}

func TestScenario_MultiTagRouting(t *testing.T) {
	// vector={"nontime","time"}, matrix={"system"}; filling scratch with 5.0
	// and accumulating adds 5.0 to both destination blocks for variable 0.
	reg := tag.NewRegistry()
	asm := newFakeAssembly(2)

	tg, err := New("euler", Config{
		VectorTags: []string{tag.NonTime, tag.Time},
		MatrixTags: []string{tag.System},
	}, reg)
	require.NoError(t, err)

	tg.PrepareVector(asm, 0)
	require.Equal(t, 2, tg.NumResidualBlocks())

	tg.LocalResidual().Fill(5.0)
	tg.AccumulateResidual()

	nontime, _ := reg.VectorTagID(tag.NonTime)
	timeID, _ := reg.VectorTagID(tag.Time)
	for i := 0; i < 2; i++ {
		assert.Equal(t, 5.0, asm.residual(0, nontime).At(i))
		assert.Equal(t, 5.0, asm.residual(0, timeID).At(i))
	}
}

func TestBindingOrder_AscendingTagID(t *testing.T) {
	reg := tag.NewRegistry()
	later, err := reg.RegisterVectorTag("zz-late")
	require.NoError(t, err)

	asm := newFakeAssembly(2)
	tg, err := New("ordered", Config{
		// Configured out of ID order on purpose.
		VectorTags: []string{"zz-late", tag.NonTime, tag.Time},
		MatrixTags: []string{tag.System},
	}, reg)
	require.NoError(t, err)

	tg.PrepareVector(asm, 0)

	nontime, _ := reg.VectorTagID(tag.NonTime)
	timeID, _ := reg.VectorTagID(tag.Time)
	assert.Equal(t, []tag.ID{nontime, timeID, later}, asm.boundOrder,
		"blocks must bind in ascending tag ID order")
}

func TestCommitWithoutPrepare_Panics(t *testing.T) {
	reg := tag.NewRegistry()
	tg, err := New("diffusion", DefaultConfig(), reg)
	require.NoError(t, err)

	assert.Panics(t, func() { tg.AccumulateResidual() })
	assert.Panics(t, func() { tg.AssignResidual() })
	assert.Panics(t, func() { tg.AccumulateJacobian() })
	assert.Panics(t, func() { tg.AssignJacobian() })
}

func TestUseTag_InvalidatesBindings(t *testing.T) {
	reg := tag.NewRegistry()
	asm := newFakeAssembly(2)

	tg, err := New("diffusion", DefaultConfig(), reg)
	require.NoError(t, err)

	tg.PrepareVector(asm, 0)
	require.Equal(t, 1, tg.NumResidualBlocks())

	// Growing the active set resets the binding array; committing before
	// the next prepare is a programmer error.
	require.NoError(t, tg.UseVectorTag(tag.Time))
	assert.Equal(t, 0, tg.NumResidualBlocks())
	assert.Panics(t, func() { tg.AccumulateResidual() })

	tg.PrepareVector(asm, 0)
	assert.Equal(t, 2, tg.NumResidualBlocks())
}

func TestNew_NilRegistry(t *testing.T) {
	_, err := New("diffusion", DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestWithMetrics_RecordsCommits(t *testing.T) {
	reg := tag.NewRegistry()
	metrics := metric.NewMetricsRegistry()
	asm := newFakeAssembly(2)

	tg, err := New("diffusion", Config{
		VectorTags: []string{tag.NonTime, tag.Time},
		MatrixTags: []string{tag.System},
	}, reg, WithMetrics(metrics))
	require.NoError(t, err)

	tg.PrepareVector(asm, 0)
	tg.LocalResidual().Fill(1)
	tg.AccumulateResidual()
	tg.AssignResidual()

	core := metrics.CoreMetrics()
	assert.InDelta(t, 2.0,
		testutil.ToFloat64(core.ResidualCommits.WithLabelValues("diffusion", "accumulate")), 1e-12)
	assert.InDelta(t, 2.0,
		testutil.ToFloat64(core.ResidualCommits.WithLabelValues("diffusion", "assign")), 1e-12)
	assert.InDelta(t, 2.0,
		testutil.ToFloat64(core.ActiveTags.WithLabelValues("diffusion", "vector")), 1e-12)
}
