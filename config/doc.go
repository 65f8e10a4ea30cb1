// Package config loads and validates problem configuration.
//
// A problem file is YAML: mesh geometry, extra tags to register beyond the
// builtins, and a map of kernel instances. Each kernel block names its type
// and carries an opaque config section that the kernel's own factory parses,
// so kernel types can evolve their options without touching this package.
//
//	name: diffusion-demo
//	mesh:
//	  elements: 16
//	  length: 1.0
//	extra_vector_tags: [diagnostic]
//	kernels:
//	  diff:
//	    type: diffusion
//	    enabled: true
//	    config:
//	      diffusivity: 2.0
//
// Load parses and validates; Build registers the extra tags and instantiates
// every enabled kernel through a kernel.Registry.
package config
