// Package errors provides standardized error handling for assembly components.
// It includes error classification, standard error variables, and helper functions
// for consistent error wrapping across the tag resolution and assembly path.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorConfiguration represents errors in a computation's declared
	// parameters, surfaced at construction time
	ErrorConfiguration ErrorClass = iota
	// ErrorLookup represents failed resolution of a symbolic name against
	// a registry (tag names, kernel type names)
	ErrorLookup
	// ErrorInternal represents invariant violations that indicate a defect
	// in the calling code rather than bad input
	ErrorInternal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorConfiguration:
		return "configuration"
	case ErrorLookup:
		return "lookup"
	case ErrorInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Tag selection errors
	ErrNoVectorTags = errors.New("at least one vector tag is required")
	ErrNoMatrixTags = errors.New("at least one matrix tag is required")

	// Registry resolution errors
	ErrUnknownVectorTag = errors.New("vector tag does not exist")
	ErrUnknownMatrixTag = errors.New("matrix tag does not exist")
	ErrUnknownKernel    = errors.New("kernel type is not registered")

	// Registration errors
	ErrDuplicateRegistration = errors.New("name is already registered")
	ErrInvalidName           = errors.New("invalid name")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")
)

// ClassifiedError wraps an error with its classification and the component
// and operation it originated from.
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorConfiguration
	}

	return errors.Is(err, ErrNoVectorTags) ||
		errors.Is(err, ErrNoMatrixTags) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingConfig)
}

// IsLookup checks if an error is a failed name or ID resolution
func IsLookup(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorLookup
	}

	return errors.Is(err, ErrUnknownVectorTag) ||
		errors.Is(err, ErrUnknownMatrixTag) ||
		errors.Is(err, ErrUnknownKernel)
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorInternal
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}

	if IsConfiguration(err) {
		return ErrorConfiguration
	}
	if IsLookup(err) {
		return ErrorLookup
	}

	return ErrorInternal
}

// newClassified creates a new classified error.
// This is an internal helper - use WrapConfiguration(), WrapLookup(), or WrapInternal() instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapConfiguration wraps an error as a configuration error with context
func WrapConfiguration(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorConfiguration, wrappedErr, component, method, wrappedErr.Error())
}

// WrapLookup wraps an error as a lookup error with context
func WrapLookup(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorLookup, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInternal wraps an error as an internal invariant violation with context
func WrapInternal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInternal, wrappedErr, component, method, wrappedErr.Error())
}
