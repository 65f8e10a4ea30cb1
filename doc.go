// Package moose provides tag-routed finite element assembly: element-local
// residual and Jacobian contributions computed once and routed into any
// number of named global containers.
//
// # Philosophy: One Computation, Many Destinations
//
// A nonlinear solver needs the same element integrals sliced different ways:
// the full residual for the Newton update, the time part alone for error
// estimation, a diagnostic copy for inspection. Recomputing per destination
// wastes the expensive quadrature loop. Instead, every destination is a
// named tag, each computation declares the tags it fills, and one local
// compute commits to all of them.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│          Kernels                    │  Physics: quadrature loops
//	│ (diffusion, reaction, du/dt, ...)   │  fill one local block
//	└─────────────────────────────────────┘
//	           ↓ commit via
//	┌─────────────────────────────────────┐
//	│          Tagging                    │  Tag routing: bind blocks,
//	│  (prepare, accumulate, assign)      │  fan out local contributions
//	└─────────────────────────────────────┘
//	           ↓ blocks provided by
//	┌─────────────────────────────────────┐
//	│          Assembly                   │  Element blocks, scatter,
//	│  (tagged vectors and matrices)      │  tagged global containers
//	└─────────────────────────────────────┘
//
// # Framework Packages
//
// Core:
//   - tag: named tag registration, name to ID resolution
//   - tagging: the tag-routing capability computations embed
//   - assembly: element destination blocks, tagged global containers
//   - dense: resizable local vectors and matrices over gonum
//
// Physics and wiring:
//   - kernel: builtin kernels, factory registry, mesh assembly loops
//   - config: YAML problem files, kernel instantiation
//
// Infrastructure:
//   - errors: structured error handling
//   - metric: Prometheus metrics
//
// # Usage Patterns
//
// Basic assembly setup:
//
//	registry := tag.NewRegistry()
//	asm, _ := assembly.New(registry, ndofs)
//
//	kernels := kernel.NewRegistry()
//	kernel.RegisterBuiltins(kernels)
//
//	deps := kernel.Dependencies{TagRegistry: registry}
//	diff, _ := kernels.Create("diffusion", "diff", nil, deps)
//
//	elems := kernel.Line1D(16, 1.0)
//	kernel.AssembleResidual(asm, elems, []kernel.Kernel{diff}, nil)
//
// Routing one kernel to an extra destination:
//
//	registry.RegisterVectorTag("diagnostic")
//	cfg := json.RawMessage(`{"tags": {"extra_vector_tags": ["diagnostic"]}}`)
//	diff, _ := kernels.Create("diffusion", "diff", cfg, deps)
//
// # Design Principles
//
// Composition over inheritance:
//   - Tag routing is a capability a computation holds, not a base it extends
//   - The tag registry is an explicit dependency, never a global
//
// Determinism:
//   - Active tag sets iterate in ascending tag ID order
//   - Kernel construction from config follows instance name order
//
// Testability:
//   - Explicit dependencies (no globals)
//   - Assembly is an interface at the tagging boundary, trivially faked
package moose
