package kernel

import (
	"encoding/json"
	"log/slog"

	"github.com/90jrong/moose/assembly"
	"github.com/90jrong/moose/errors"
	"github.com/90jrong/moose/tagging"
)

// ReactionConfig configures a Reaction kernel.
type ReactionConfig struct {
	Variable int            `json:"variable"`
	Rate     float64        `json:"rate"`
	Tags     tagging.Config `json:"tags"`
}

// DefaultReactionConfig returns a unit-rate reaction on variable 0 with the
// standard tag selections.
func DefaultReactionConfig() ReactionConfig {
	return ReactionConfig{
		Variable: 0,
		Rate:     1.0,
		Tags:     tagging.DefaultConfig(),
	}
}

// Reaction contributes the first-order reaction term: at each quadrature
// point the residual picks up JxW * rate * u * phi_i.
type Reaction struct {
	name     string
	variable int
	rate     float64
	tags     *tagging.Tagging
	logger   *slog.Logger
}

// NewReaction creates a Reaction kernel from configuration.
func NewReaction(name string, rawConfig json.RawMessage, deps Dependencies) (Kernel, error) {
	cfg := DefaultReactionConfig()
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &cfg); err != nil {
			return nil, errors.WrapConfiguration(err, "Reaction", "NewReaction", "config unmarshal")
		}
	}

	tags, err := newTagging(name, cfg.Tags.Normalize(), deps)
	if err != nil {
		return nil, err
	}

	return &Reaction{
		name:     name,
		variable: cfg.Variable,
		rate:     cfg.Rate,
		tags:     tags,
		logger:   deps.GetLogger(),
	}, nil
}

// Name returns the kernel instance name.
func (k *Reaction) Name() string { return k.name }

// Variable returns the variable this kernel acts on.
func (k *Reaction) Variable() int { return k.variable }

// Tags exposes the tagging capability.
func (k *Reaction) Tags() *tagging.Tagging { return k.tags }

// ComputeResidual accumulates the reaction residual into every active
// vector tag's destination block.
func (k *Reaction) ComputeResidual(asm *assembly.Assembly, e *Element) error {
	k.tags.PrepareVector(asm, k.variable)
	re := k.tags.LocalResidual()

	for qp := 0; qp < e.NumQP(); qp++ {
		u := e.Value(k.variable, qp)
		for i := 0; i < e.NumNodes(); i++ {
			re.AddAt(i, e.JxW[qp]*k.rate*u*e.Phi[qp][i])
		}
	}

	k.tags.AccumulateResidual()
	return nil
}

// ComputeJacobian accumulates the reaction Jacobian into every active
// matrix tag's destination block.
func (k *Reaction) ComputeJacobian(asm *assembly.Assembly, e *Element) error {
	k.tags.PrepareMatrix(asm, k.variable, k.variable)
	ke := k.tags.LocalJacobian()

	for qp := 0; qp < e.NumQP(); qp++ {
		for i := 0; i < e.NumNodes(); i++ {
			for j := 0; j < e.NumNodes(); j++ {
				ke.AddAt(i, j, e.JxW[qp]*k.rate*e.Phi[qp][j]*e.Phi[qp][i])
			}
		}
	}

	k.tags.AccumulateJacobian()
	return nil
}
