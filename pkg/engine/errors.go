package engine

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an inference error for programmatic handling.
type ErrorKind string

const (
	// ErrorKindNotImplemented indicates the base engine was asked to build
	// a model without a variant supplying the graph construction.
	ErrorKindNotImplemented ErrorKind = "not_implemented"

	// ErrorKindMissingInput indicates a required named input was absent
	// when building or running.
	ErrorKindMissingInput ErrorKind = "missing_input"

	// ErrorKindShapeMismatch indicates rebinding data whose shape differs
	// from the cached container.
	ErrorKindShapeMismatch ErrorKind = "shape_mismatch"

	// ErrorKindInvalidParameter indicates a value that had to be
	// pre-validated (broadcast lengths, input conversion). Density-level
	// invalidity (A <= 0, B outside (0,1)) is deliberately not
	// pre-validated; priors own the support and samplers reject the rest.
	ErrorKindInvalidParameter ErrorKind = "invalid_parameter"

	// ErrorKindBuildFailed indicates graph construction itself failed.
	ErrorKindBuildFailed ErrorKind = "build_failed"
)

// InferenceError is a classified error carrying the input it concerns.
type InferenceError struct {
	// Kind is the error classification.
	Kind ErrorKind `json:"kind"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Input is the named input that caused the error, if applicable.
	Input string `json:"input,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *InferenceError) Error() string {
	switch {
	case e.Input != "" && e.Err != nil:
		return fmt.Sprintf("[%s] %s (input=%s): %v", e.Kind, e.Message, e.Input, e.Err)
	case e.Input != "":
		return fmt.Sprintf("[%s] %s (input=%s)", e.Kind, e.Message, e.Input)
	case e.Err != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	default:
		return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	}
}

// Unwrap returns the underlying error for error chain inspection.
func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is: two
// InferenceErrors match when their kinds match.
func (e *InferenceError) Is(target error) bool {
	t, ok := target.(*InferenceError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithInput adds input context to an error.
func (e *InferenceError) WithInput(input string) *InferenceError {
	e.Input = input
	return e
}

// NewNotImplementedError creates a new not-implemented error.
func NewNotImplementedError(message string) *InferenceError {
	return &InferenceError{
		Kind:    ErrorKindNotImplemented,
		Message: message,
	}
}

// NewMissingInputError creates a new missing-input error for the named
// input.
func NewMissingInputError(input string) *InferenceError {
	return &InferenceError{
		Kind:    ErrorKindMissingInput,
		Message: "required input is missing",
		Input:   input,
	}
}

// NewShapeMismatchError creates a new shape-mismatch error for the named
// input.
func NewShapeMismatchError(input string, want, got int) *InferenceError {
	return &InferenceError{
		Kind:    ErrorKindShapeMismatch,
		Message: fmt.Sprintf("cached container has length %d, new value has length %d", want, got),
		Input:   input,
	}
}

// NewInvalidParameterError creates a new invalid-parameter error.
func NewInvalidParameterError(message string, err error) *InferenceError {
	return &InferenceError{
		Kind:    ErrorKindInvalidParameter,
		Message: message,
		Err:     err,
	}
}

// NewBuildFailedError creates a new build-failed error wrapping the cause.
func NewBuildFailedError(message string, err error) *InferenceError {
	return &InferenceError{
		Kind:    ErrorKindBuildFailed,
		Message: message,
		Err:     err,
	}
}

// IsNotImplemented returns true if the error is a not-implemented error.
func IsNotImplemented(err error) bool {
	return isKind(err, ErrorKindNotImplemented)
}

// IsMissingInput returns true if the error is a missing-input error.
func IsMissingInput(err error) bool {
	return isKind(err, ErrorKindMissingInput)
}

// IsShapeMismatch returns true if the error is a shape-mismatch error.
func IsShapeMismatch(err error) bool {
	return isKind(err, ErrorKindShapeMismatch)
}

// IsInvalidParameter returns true if the error is an invalid-parameter
// error.
func IsInvalidParameter(err error) bool {
	return isKind(err, ErrorKindInvalidParameter)
}

// IsBuildFailed returns true if the error is a build-failed error.
func IsBuildFailed(err error) bool {
	return isKind(err, ErrorKindBuildFailed)
}

func isKind(err error, kind ErrorKind) bool {
	var e *InferenceError
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
