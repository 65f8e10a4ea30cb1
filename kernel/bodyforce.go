package kernel

import (
	"encoding/json"
	"log/slog"

	"github.com/90jrong/moose/assembly"
	"github.com/90jrong/moose/errors"
	"github.com/90jrong/moose/tagging"
)

// BodyForceConfig configures a BodyForce kernel.
type BodyForceConfig struct {
	Variable  int            `json:"variable"`
	Magnitude float64        `json:"magnitude"`
	Tags      tagging.Config `json:"tags"`
}

// DefaultBodyForceConfig returns a unit source on variable 0 with the
// standard tag selections.
func DefaultBodyForceConfig() BodyForceConfig {
	return BodyForceConfig{
		Variable:  0,
		Magnitude: 1.0,
		Tags:      tagging.DefaultConfig(),
	}
}

// BodyForce contributes a constant volumetric source: at each quadrature
// point the residual picks up -JxW * f * phi_i. The Jacobian contribution
// is zero, but the kernel still runs the prepare/commit cycle so its matrix
// tags see a correctly shaped zero block.
type BodyForce struct {
	name      string
	variable  int
	magnitude float64
	tags      *tagging.Tagging
	logger    *slog.Logger
}

// NewBodyForce creates a BodyForce kernel from configuration.
func NewBodyForce(name string, rawConfig json.RawMessage, deps Dependencies) (Kernel, error) {
	cfg := DefaultBodyForceConfig()
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &cfg); err != nil {
			return nil, errors.WrapConfiguration(err, "BodyForce", "NewBodyForce", "config unmarshal")
		}
	}

	tags, err := newTagging(name, cfg.Tags.Normalize(), deps)
	if err != nil {
		return nil, err
	}

	return &BodyForce{
		name:      name,
		variable:  cfg.Variable,
		magnitude: cfg.Magnitude,
		tags:      tags,
		logger:    deps.GetLogger(),
	}, nil
}

// Name returns the kernel instance name.
func (k *BodyForce) Name() string { return k.name }

// Variable returns the variable this kernel acts on.
func (k *BodyForce) Variable() int { return k.variable }

// Tags exposes the tagging capability.
func (k *BodyForce) Tags() *tagging.Tagging { return k.tags }

// ComputeResidual accumulates the source residual into every active vector
// tag's destination block.
func (k *BodyForce) ComputeResidual(asm *assembly.Assembly, e *Element) error {
	k.tags.PrepareVector(asm, k.variable)
	re := k.tags.LocalResidual()

	for qp := 0; qp < e.NumQP(); qp++ {
		for i := 0; i < e.NumNodes(); i++ {
			re.AddAt(i, -e.JxW[qp]*k.magnitude*e.Phi[qp][i])
		}
	}

	k.tags.AccumulateResidual()
	return nil
}

// ComputeJacobian commits a zero block; a constant source has no solution
// dependence.
func (k *BodyForce) ComputeJacobian(asm *assembly.Assembly, e *Element) error {
	k.tags.PrepareMatrix(asm, k.variable, k.variable)
	k.tags.AccumulateJacobian()
	return nil
}
