// Package tag provides the process-wide tag registry mapping symbolic tag
// names to integer tag IDs.
//
// Two independent namespaces exist: vector tags identify global residual
// vectors, matrix tags identify global Jacobian matrices. An ID is unique
// within its namespace and is assigned once at registration; the registry is
// populated during setup and read-only during assembly.
//
// The registry is an explicitly passed object rather than ambient global
// state so tests can construct isolated registries.
package tag

import (
	"fmt"
	"sync"

	"github.com/90jrong/moose/errors"
)

// ID is an opaque tag identifier, unique within its namespace.
type ID uint32

// Builtin tag names registered by NewRegistry.
const (
	// NonTime is the default vector tag for non-time residual contributions.
	// A matrix tag of the same name holds the non-time Jacobian part.
	NonTime = "nontime"
	// Time is the vector tag for time-derivative residual contributions.
	Time = "time"
	// System is the default matrix tag for the full system Jacobian.
	System = "system"
)

// Registry owns the name-to-ID mapping for both tag namespaces.
// All methods are safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	vectorIDs   map[string]ID
	vectorNames []string
	matrixIDs   map[string]ID
	matrixNames []string
}

// NewRegistry creates a registry pre-populated with the builtin tags:
// vector tags "nontime" and "time", matrix tags "system" and "nontime".
func NewRegistry() *Registry {
	r := &Registry{
		vectorIDs: make(map[string]ID),
		matrixIDs: make(map[string]ID),
	}

	// Builtin tags. Registration on a fresh registry cannot fail.
	_, _ = r.RegisterVectorTag(NonTime)
	_, _ = r.RegisterVectorTag(Time)
	_, _ = r.RegisterMatrixTag(System)
	_, _ = r.RegisterMatrixTag(NonTime)

	return r
}

// RegisterVectorTag registers a vector tag name and returns its ID.
// Registering an existing name is idempotent and returns the existing ID.
func (r *Registry) RegisterVectorTag(name string) (ID, error) {
	if err := validateTagName(name); err != nil {
		return 0, errors.Wrap(err, "TagRegistry", "RegisterVectorTag", "tag name validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.vectorIDs[name]; exists {
		return id, nil
	}

	id := ID(len(r.vectorNames))
	r.vectorIDs[name] = id
	r.vectorNames = append(r.vectorNames, name)
	return id, nil
}

// RegisterMatrixTag registers a matrix tag name and returns its ID.
// Registering an existing name is idempotent and returns the existing ID.
func (r *Registry) RegisterMatrixTag(name string) (ID, error) {
	if err := validateTagName(name); err != nil {
		return 0, errors.Wrap(err, "TagRegistry", "RegisterMatrixTag", "tag name validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.matrixIDs[name]; exists {
		return id, nil
	}

	id := ID(len(r.matrixNames))
	r.matrixIDs[name] = id
	r.matrixNames = append(r.matrixNames, name)
	return id, nil
}

// VectorTagExists reports whether a vector tag name is registered.
func (r *Registry) VectorTagExists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.vectorIDs[name]
	return exists
}

// MatrixTagExists reports whether a matrix tag name is registered.
func (r *Registry) MatrixTagExists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.matrixIDs[name]
	return exists
}

// VectorTagIDExists reports whether a vector tag ID is registered.
func (r *Registry) VectorTagIDExists(id ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int(id) < len(r.vectorNames)
}

// MatrixTagIDExists reports whether a matrix tag ID is registered.
func (r *Registry) MatrixTagIDExists(id ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int(id) < len(r.matrixNames)
}

// VectorTagID resolves a vector tag name to its ID.
func (r *Registry) VectorTagID(name string) (ID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.vectorIDs[name]
	if !exists {
		msg := fmt.Errorf("vector tag %q: %w", name, errors.ErrUnknownVectorTag)
		return 0, errors.WrapLookup(msg, "TagRegistry", "VectorTagID", "tag lookup")
	}
	return id, nil
}

// MatrixTagID resolves a matrix tag name to its ID.
func (r *Registry) MatrixTagID(name string) (ID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.matrixIDs[name]
	if !exists {
		msg := fmt.Errorf("matrix tag %q: %w", name, errors.ErrUnknownMatrixTag)
		return 0, errors.WrapLookup(msg, "TagRegistry", "MatrixTagID", "tag lookup")
	}
	return id, nil
}

// VectorTagName returns the name registered for a vector tag ID.
func (r *Registry) VectorTagName(id ID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if int(id) >= len(r.vectorNames) {
		msg := fmt.Errorf("vector tag ID %d: %w", id, errors.ErrUnknownVectorTag)
		return "", errors.WrapLookup(msg, "TagRegistry", "VectorTagName", "tag lookup")
	}
	return r.vectorNames[id], nil
}

// MatrixTagName returns the name registered for a matrix tag ID.
func (r *Registry) MatrixTagName(id ID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if int(id) >= len(r.matrixNames) {
		msg := fmt.Errorf("matrix tag ID %d: %w", id, errors.ErrUnknownMatrixTag)
		return "", errors.WrapLookup(msg, "TagRegistry", "MatrixTagName", "tag lookup")
	}
	return r.matrixNames[id], nil
}

// NumVectorTags returns the number of registered vector tags.
func (r *Registry) NumVectorTags() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.vectorNames)
}

// NumMatrixTags returns the number of registered matrix tags.
func (r *Registry) NumMatrixTags() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.matrixNames)
}

// VectorTagNames returns all registered vector tag names in ID order.
func (r *Registry) VectorTagNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.vectorNames))
	copy(out, r.vectorNames)
	return out
}

// MatrixTagNames returns all registered matrix tag names in ID order.
func (r *Registry) MatrixTagNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.matrixNames))
	copy(out, r.matrixNames)
	return out
}

// validateTagName checks a tag name for emptiness and unsafe characters.
// Allowed: alphanumeric, dash, underscore, dot.
func validateTagName(name string) error {
	if name == "" {
		return fmt.Errorf("empty tag name: %w", errors.ErrInvalidName)
	}
	for _, c := range name {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') || c == '-' || c == '_' || c == '.') {
			return fmt.Errorf("tag name %q contains invalid characters: %w", name, errors.ErrInvalidName)
		}
	}
	return nil
}
