// Package kernel provides the physics computations that fill tagged local
// contributions during element assembly.
//
// A kernel owns a tagging.Tagging capability and, per element, prepares
// tagged destination blocks, fills the local scratch buffer from quadrature
// point data, and commits. Kernels are created from JSON configuration
// through a factory Registry, mirroring how flows wire components from
// declarative configuration.
package kernel

import (
	"log/slog"
	"time"

	"github.com/90jrong/moose/assembly"
	"github.com/90jrong/moose/errors"
	"github.com/90jrong/moose/metric"
	"github.com/90jrong/moose/tag"
	"github.com/90jrong/moose/tagging"
)

// Kernel computes element-local residual and Jacobian contributions for one
// variable.
type Kernel interface {
	Name() string
	Variable() int
	ComputeResidual(asm *assembly.Assembly, e *Element) error
	ComputeJacobian(asm *assembly.Assembly, e *Element) error
}

// Dependencies carries the collaborators a kernel factory needs.
type Dependencies struct {
	TagRegistry *tag.Registry
	Metrics     *metric.MetricsRegistry
	Logger      *slog.Logger
}

// GetLogger returns the configured logger, falling back to slog.Default.
func (d Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// newTagging builds a kernel's tagging capability from its configured tag
// selections, wiring metrics when available.
func newTagging(name string, cfg tagging.Config, deps Dependencies) (*tagging.Tagging, error) {
	opts := []tagging.Option{}
	if deps.Metrics != nil {
		opts = append(opts, tagging.WithMetrics(deps.Metrics))
	}
	return tagging.New(name, cfg, deps.TagRegistry, opts...)
}

// AssembleResidual runs every kernel's residual computation over the mesh,
// scattering each element's tagged blocks into the global containers.
func AssembleResidual(
	asm *assembly.Assembly, elems []*Element, kernels []Kernel, metrics *metric.MetricsRegistry,
) error {
	for _, e := range elems {
		start := time.Now()

		asm.PrepareElement()
		for _, ivar := range e.Variables() {
			asm.SetElementDofs(ivar, e.Dofs(ivar))
		}

		for _, k := range kernels {
			if err := k.ComputeResidual(asm, e); err != nil {
				return errors.Wrap(err, "Kernel", "AssembleResidual", "residual computation")
			}
		}
		asm.ScatterResidual()

		if metrics != nil {
			metrics.CoreMetrics().RecordElementAssembled("residual")
			metrics.CoreMetrics().ObserveAssembleDuration("residual", time.Since(start).Seconds())
		}
	}
	return nil
}

// AssembleJacobian runs every kernel's Jacobian computation over the mesh,
// scattering each element's tagged blocks into the global accumulators.
func AssembleJacobian(
	asm *assembly.Assembly, elems []*Element, kernels []Kernel, metrics *metric.MetricsRegistry,
) error {
	for _, e := range elems {
		start := time.Now()

		asm.PrepareElement()
		for _, ivar := range e.Variables() {
			asm.SetElementDofs(ivar, e.Dofs(ivar))
		}

		for _, k := range kernels {
			if err := k.ComputeJacobian(asm, e); err != nil {
				return errors.Wrap(err, "Kernel", "AssembleJacobian", "jacobian computation")
			}
		}
		asm.ScatterJacobian()

		if metrics != nil {
			metrics.CoreMetrics().RecordElementAssembled("jacobian")
			metrics.CoreMetrics().ObserveAssembleDuration("jacobian", time.Since(start).Seconds())
		}
	}
	return nil
}
