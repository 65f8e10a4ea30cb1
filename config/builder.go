package config

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/90jrong/moose/errors"
	"github.com/90jrong/moose/kernel"
)

// Build registers the problem's extra tags and instantiates every enabled
// kernel through registry. Kernels are created in instance name order so
// construction errors and logs are deterministic.
func (p *Problem) Build(registry *kernel.Registry, deps kernel.Dependencies) ([]kernel.Kernel, error) {
	if registry == nil {
		return nil, errors.WrapInternal(
			fmt.Errorf("kernel registry cannot be nil"),
			"Problem", "Build", "registry validation")
	}
	if deps.TagRegistry == nil {
		return nil, errors.WrapInternal(
			fmt.Errorf("tag registry cannot be nil"),
			"Problem", "Build", "tag registry validation")
	}

	for _, name := range p.ExtraVectorTags {
		if _, err := deps.TagRegistry.RegisterVectorTag(name); err != nil {
			return nil, errors.Wrap(err, "Problem", "Build", "extra vector tag registration")
		}
	}
	for _, name := range p.ExtraMatrixTags {
		if _, err := deps.TagRegistry.RegisterMatrixTag(name); err != nil {
			return nil, errors.Wrap(err, "Problem", "Build", "extra matrix tag registration")
		}
	}

	names := maps.Keys(p.Kernels)
	slices.Sort(names)

	kernels := make([]kernel.Kernel, 0, len(names))
	for _, name := range names {
		kc := p.Kernels[name]
		if !kc.IsEnabled() {
			deps.GetLogger().Debug("skipping disabled kernel", "name", name, "type", kc.Type)
			continue
		}

		raw, err := kc.RawConfig()
		if err != nil {
			return nil, errors.Wrap(err, "Problem", "Build", fmt.Sprintf("kernel %s config", name))
		}
		k, err := registry.Create(kc.Type, name, raw, deps)
		if err != nil {
			return nil, errors.Wrap(err, "Problem", "Build", fmt.Sprintf("kernel %s creation", name))
		}
		kernels = append(kernels, k)
	}
	return kernels, nil
}
