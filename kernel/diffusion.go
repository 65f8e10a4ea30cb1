package kernel

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/90jrong/moose/assembly"
	"github.com/90jrong/moose/errors"
	"github.com/90jrong/moose/tagging"
)

// DiffusionConfig configures a Diffusion kernel.
type DiffusionConfig struct {
	Variable    int            `json:"variable"`
	Diffusivity float64        `json:"diffusivity"`
	Tags        tagging.Config `json:"tags"`
}

// DefaultDiffusionConfig returns unit diffusivity on variable 0 with the
// standard tag selections.
func DefaultDiffusionConfig() DiffusionConfig {
	return DiffusionConfig{
		Variable:    0,
		Diffusivity: 1.0,
		Tags:        tagging.DefaultConfig(),
	}
}

// Diffusion contributes the weak-form Laplacian: at each quadrature point
// the residual picks up JxW * D * grad(u) . grad(phi_i).
type Diffusion struct {
	name        string
	variable    int
	diffusivity float64
	tags        *tagging.Tagging
	logger      *slog.Logger
}

// NewDiffusion creates a Diffusion kernel from configuration.
func NewDiffusion(name string, rawConfig json.RawMessage, deps Dependencies) (Kernel, error) {
	// Unmarshalling over the defaults keeps any selection the config omits.
	cfg := DefaultDiffusionConfig()
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &cfg); err != nil {
			return nil, errors.WrapConfiguration(err, "Diffusion", "NewDiffusion", "config unmarshal")
		}
	}
	if cfg.Diffusivity <= 0 {
		return nil, errors.WrapConfiguration(
			fmt.Errorf("diffusivity %g must be positive: %w", cfg.Diffusivity, errors.ErrInvalidConfig),
			"Diffusion", "NewDiffusion", "diffusivity validation")
	}

	tags, err := newTagging(name, cfg.Tags.Normalize(), deps)
	if err != nil {
		return nil, err
	}

	return &Diffusion{
		name:        name,
		variable:    cfg.Variable,
		diffusivity: cfg.Diffusivity,
		tags:        tags,
		logger:      deps.GetLogger(),
	}, nil
}

// Name returns the kernel instance name.
func (k *Diffusion) Name() string { return k.name }

// Variable returns the variable this kernel acts on.
func (k *Diffusion) Variable() int { return k.variable }

// Tags exposes the tagging capability, e.g. to route this kernel's
// contribution to additional tags after construction.
func (k *Diffusion) Tags() *tagging.Tagging { return k.tags }

// ComputeResidual accumulates the diffusion residual into every active
// vector tag's destination block.
func (k *Diffusion) ComputeResidual(asm *assembly.Assembly, e *Element) error {
	k.tags.PrepareVector(asm, k.variable)
	re := k.tags.LocalResidual()

	for qp := 0; qp < e.NumQP(); qp++ {
		grad := e.Gradient(k.variable, qp)
		for i := 0; i < e.NumNodes(); i++ {
			re.AddAt(i, e.JxW[qp]*k.diffusivity*grad*e.GradPhi[qp][i])
		}
	}

	k.tags.AccumulateResidual()
	return nil
}

// ComputeJacobian accumulates the diffusion Jacobian into every active
// matrix tag's destination block.
func (k *Diffusion) ComputeJacobian(asm *assembly.Assembly, e *Element) error {
	k.tags.PrepareMatrix(asm, k.variable, k.variable)
	ke := k.tags.LocalJacobian()

	for qp := 0; qp < e.NumQP(); qp++ {
		for i := 0; i < e.NumNodes(); i++ {
			for j := 0; j < e.NumNodes(); j++ {
				ke.AddAt(i, j, e.JxW[qp]*k.diffusivity*e.GradPhi[qp][j]*e.GradPhi[qp][i])
			}
		}
	}

	k.tags.AccumulateJacobian()
	return nil
}
