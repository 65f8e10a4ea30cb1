package kernel

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/exp/maps"

	"github.com/90jrong/moose/errors"
)

// Factory creates a kernel instance from raw JSON configuration and
// dependencies. The factory parses its own config and returns a fully
// initialized kernel; no I/O happens at creation time.
type Factory func(name string, rawConfig json.RawMessage, deps Dependencies) (Kernel, error)

// Registration holds the factory and metadata for a kernel type.
type Registration struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Factory     Factory `json:"-"`
}

// Registry manages kernel factories by type name. All methods are safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]*Registration
}

// NewRegistry creates a new empty kernel registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]*Registration)}
}

// Register registers a kernel factory under its type name.
// Returns an error if a factory with the same type is already registered.
func (r *Registry) Register(registration *Registration) error {
	if registration == nil || registration.Factory == nil {
		return errors.WrapConfiguration(errors.ErrInvalidConfig,
			"KernelRegistry", "Register", "registration validation")
	}
	if registration.Type == "" {
		return errors.WrapConfiguration(errors.ErrInvalidName,
			"KernelRegistry", "Register", "type name validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[registration.Type]; exists {
		msg := fmt.Errorf("kernel type %q: %w", registration.Type, errors.ErrDuplicateRegistration)
		return errors.WrapConfiguration(msg, "KernelRegistry", "Register", "duplicate type check")
	}

	r.factories[registration.Type] = registration
	return nil
}

// Create instantiates a kernel of the given type. instanceName identifies
// the created kernel in errors and metrics; rawConfig is the kernel's own
// configuration.
func (r *Registry) Create(
	typeName, instanceName string, rawConfig json.RawMessage, deps Dependencies,
) (Kernel, error) {
	if instanceName == "" {
		return nil, errors.WrapConfiguration(errors.ErrInvalidName,
			"KernelRegistry", "Create", "instance name validation")
	}
	if deps.TagRegistry == nil {
		return nil, errors.WrapConfiguration(errors.ErrInvalidConfig,
			"KernelRegistry", "Create", "tag registry validation")
	}

	r.mu.RLock()
	registration, exists := r.factories[typeName]
	r.mu.RUnlock()

	if !exists {
		msg := fmt.Errorf("kernel type %q: %w", typeName, errors.ErrUnknownKernel)
		return nil, errors.WrapLookup(msg, "KernelRegistry", "Create", "factory lookup")
	}

	k, err := registration.Factory(instanceName, rawConfig, deps)
	if err != nil {
		return nil, errors.Wrap(err, "KernelRegistry", "Create", "factory execution")
	}

	deps.GetLogger().Debug("created kernel",
		"type", typeName, "name", instanceName, "variable", k.Variable())
	return k, nil
}

// Types returns all registered kernel type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := maps.Keys(r.factories)
	slices.Sort(types)
	return types
}

// RegisterBuiltins registers every kernel type shipped with this module.
func RegisterBuiltins(registry *Registry) error {
	builtins := []*Registration{
		{
			Type:        "diffusion",
			Description: "Laplacian operator -div(D grad u)",
			Factory:     NewDiffusion,
		},
		{
			Type:        "reaction",
			Description: "First-order reaction term c*u",
			Factory:     NewReaction,
		},
		{
			Type:        "body-force",
			Description: "Constant volumetric source term",
			Factory:     NewBodyForce,
		},
		{
			Type:        "time-derivative",
			Description: "Backward Euler du/dt routed to the time tag",
			Factory:     NewTimeDerivative,
		},
	}

	for _, b := range builtins {
		if err := registry.Register(b); err != nil {
			return errors.Wrap(err, "KernelRegistry", "RegisterBuiltins",
				fmt.Sprintf("%s registration", b.Type))
		}
	}
	return nil
}
