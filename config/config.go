package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/90jrong/moose/errors"
)

// KernelConfig is one kernel instance block in a problem file. The map key
// in Problem.Kernels is the instance name; Type selects the factory and
// Config is handed to it untouched.
type KernelConfig struct {
	Type    string         `yaml:"type"`
	Enabled *bool          `yaml:"enabled,omitempty"`
	Config  map[string]any `yaml:"config,omitempty"`
}

// IsEnabled reports whether the kernel should be instantiated. Kernels are
// enabled unless the block says otherwise.
func (k KernelConfig) IsEnabled() bool {
	return k.Enabled == nil || *k.Enabled
}

// RawConfig returns the kernel's config section as JSON for its factory.
func (k KernelConfig) RawConfig() (json.RawMessage, error) {
	if len(k.Config) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(k.Config)
	if err != nil {
		return nil, errors.WrapConfiguration(err, "KernelConfig", "RawConfig", "config encoding")
	}
	return raw, nil
}

// MeshConfig defines the uniform 1D mesh the problem assembles over.
type MeshConfig struct {
	Elements int     `yaml:"elements"`
	Length   float64 `yaml:"length"`
}

// Problem is a complete problem configuration.
type Problem struct {
	Name string     `yaml:"name"`
	Mesh MeshConfig `yaml:"mesh"`

	// Tags registered in addition to the builtins before any kernel is
	// created, so kernel extra_*_tags selections can resolve them.
	ExtraVectorTags []string `yaml:"extra_vector_tags,omitempty"`
	ExtraMatrixTags []string `yaml:"extra_matrix_tags,omitempty"`

	Kernels map[string]KernelConfig `yaml:"kernels"`
}

// DefaultProblem returns a runnable problem: a 10-element unit mesh with a
// single unit diffusion kernel.
func DefaultProblem() *Problem {
	return &Problem{
		Name: "default",
		Mesh: MeshConfig{Elements: 10, Length: 1.0},
		Kernels: map[string]KernelConfig{
			"diff": {Type: "diffusion"},
		},
	}
}

// Parse decodes a YAML problem configuration and validates it.
func Parse(data []byte) (*Problem, error) {
	p := DefaultProblem()
	p.Kernels = nil

	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, errors.WrapConfiguration(err, "Problem", "Parse", "yaml decoding")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads and parses a problem configuration file.
func Load(path string) (*Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapConfiguration(err, "Problem", "Load", "file read")
	}
	p, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "Problem", "Load", fmt.Sprintf("parsing %s", path))
	}
	return p, nil
}

// Validate checks the problem for structural errors.
func (p *Problem) Validate() error {
	if p.Name == "" {
		return errors.WrapConfiguration(
			fmt.Errorf("problem name: %w", errors.ErrInvalidName),
			"Problem", "Validate", "name validation")
	}
	if p.Mesh.Elements <= 0 {
		return errors.WrapConfiguration(
			fmt.Errorf("mesh.elements %d must be positive: %w", p.Mesh.Elements, errors.ErrInvalidConfig),
			"Problem", "Validate", "mesh validation")
	}
	if p.Mesh.Length <= 0 {
		return errors.WrapConfiguration(
			fmt.Errorf("mesh.length %g must be positive: %w", p.Mesh.Length, errors.ErrInvalidConfig),
			"Problem", "Validate", "mesh validation")
	}
	if len(p.Kernels) == 0 {
		return errors.WrapConfiguration(
			fmt.Errorf("at least one kernel required: %w", errors.ErrMissingConfig),
			"Problem", "Validate", "kernel validation")
	}
	for name, k := range p.Kernels {
		if name == "" {
			return errors.WrapConfiguration(
				fmt.Errorf("kernel instance name: %w", errors.ErrInvalidName),
				"Problem", "Validate", "kernel validation")
		}
		if k.Type == "" {
			return errors.WrapConfiguration(
				fmt.Errorf("kernel %q has no type: %w", name, errors.ErrMissingConfig),
				"Problem", "Validate", "kernel validation")
		}
	}
	return nil
}
