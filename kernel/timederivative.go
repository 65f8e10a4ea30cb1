package kernel

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/90jrong/moose/assembly"
	"github.com/90jrong/moose/errors"
	"github.com/90jrong/moose/tag"
	"github.com/90jrong/moose/tagging"
)

// TimeDerivativeConfig configures a TimeDerivative kernel.
type TimeDerivativeConfig struct {
	Variable int            `json:"variable"`
	Dt       float64        `json:"dt"`
	Tags     tagging.Config `json:"tags"`
}

// DefaultTimeDerivativeConfig routes the time-derivative contribution to
// the "time" vector tag and the "system" matrix tag.
func DefaultTimeDerivativeConfig() TimeDerivativeConfig {
	return TimeDerivativeConfig{
		Variable: 0,
		Dt:       1.0,
		Tags: tagging.Config{
			VectorTags: []string{tag.Time},
			MatrixTags: []string{tag.System},
		},
	}
}

// TimeDerivative contributes the backward Euler time term: at each
// quadrature point the residual picks up JxW * (u - u_old)/dt * phi_i,
// routed by default to the "time" vector tag so time and non-time residual
// parts stay separable.
type TimeDerivative struct {
	name     string
	variable int
	dt       float64
	tags     *tagging.Tagging
	logger   *slog.Logger
}

// NewTimeDerivative creates a TimeDerivative kernel from configuration.
func NewTimeDerivative(name string, rawConfig json.RawMessage, deps Dependencies) (Kernel, error) {
	cfg := DefaultTimeDerivativeConfig()
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &cfg); err != nil {
			return nil, errors.WrapConfiguration(err, "TimeDerivative", "NewTimeDerivative", "config unmarshal")
		}
	}
	if cfg.Dt <= 0 {
		return nil, errors.WrapConfiguration(
			fmt.Errorf("time step %g must be positive: %w", cfg.Dt, errors.ErrInvalidConfig),
			"TimeDerivative", "NewTimeDerivative", "time step validation")
	}

	tags, err := newTagging(name, cfg.Tags, deps)
	if err != nil {
		return nil, err
	}

	return &TimeDerivative{
		name:     name,
		variable: cfg.Variable,
		dt:       cfg.Dt,
		tags:     tags,
		logger:   deps.GetLogger(),
	}, nil
}

// Name returns the kernel instance name.
func (k *TimeDerivative) Name() string { return k.name }

// Variable returns the variable this kernel acts on.
func (k *TimeDerivative) Variable() int { return k.variable }

// Tags exposes the tagging capability.
func (k *TimeDerivative) Tags() *tagging.Tagging { return k.tags }

// ComputeResidual accumulates the time-derivative residual into every
// active vector tag's destination block.
func (k *TimeDerivative) ComputeResidual(asm *assembly.Assembly, e *Element) error {
	k.tags.PrepareVector(asm, k.variable)
	re := k.tags.LocalResidual()

	for qp := 0; qp < e.NumQP(); qp++ {
		udot := (e.Value(k.variable, qp) - e.ValueOld(k.variable, qp)) / k.dt
		for i := 0; i < e.NumNodes(); i++ {
			re.AddAt(i, e.JxW[qp]*udot*e.Phi[qp][i])
		}
	}

	k.tags.AccumulateResidual()
	return nil
}

// ComputeJacobian accumulates the time-derivative Jacobian, phi_j*phi_i/dt,
// into every active matrix tag's destination block.
func (k *TimeDerivative) ComputeJacobian(asm *assembly.Assembly, e *Element) error {
	k.tags.PrepareMatrix(asm, k.variable, k.variable)
	ke := k.tags.LocalJacobian()

	for qp := 0; qp < e.NumQP(); qp++ {
		for i := 0; i < e.NumNodes(); i++ {
			for j := 0; j < e.NumNodes(); j++ {
				ke.AddAt(i, j, e.JxW[qp]*e.Phi[qp][j]*e.Phi[qp][i]/k.dt)
			}
		}
	}

	k.tags.AccumulateJacobian()
	return nil
}
