// Package errors provides the structured runtime error type shared by the
// evaluator and the row executors. Every failure carries a Kind so callers
// can distinguish type errors from zero division, undefined names and
// argument mismatches without string matching.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a script runtime error.
type Kind int

const (
	KindTypeError Kind = iota
	KindZeroDivision
	KindUndefinedVariable
	KindUndefinedFunction
	KindArgumentMismatch
	// KindIndexOutOfBounds is reserved; index overruns currently yield null
	// rather than an error.
	KindIndexOutOfBounds
)

func (k Kind) String() string {
	switch k {
	case KindTypeError:
		return "type error"
	case KindZeroDivision:
		return "zero division"
	case KindUndefinedVariable:
		return "undefined variable"
	case KindUndefinedFunction:
		return "undefined function"
	case KindArgumentMismatch:
		return "argument mismatch"
	case KindIndexOutOfBounds:
		return "index out of bounds"
	}
	return "runtime error"
}

// ScriptError represents a runtime failure during script evaluation.
type ScriptError struct {
	Kind    Kind   // Error classification
	Name    string // Variable or function name if applicable
	Message string // Human-readable error description
	Cause   error  // Underlying error cause
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Name, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for error wrapping support.
func (e *ScriptError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is().
func (e *ScriptError) Is(target error) bool {
	if se, ok := target.(*ScriptError); ok {
		return e.Kind == se.Kind && e.Name == se.Name && e.Message == se.Message
	}
	return false
}

// NewTypeError creates an error for operations on incompatible value kinds.
func NewTypeError(format string, args ...any) *ScriptError {
	return &ScriptError{
		Kind:    KindTypeError,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewZeroDivisionError creates an error for division or modulo by zero.
func NewZeroDivisionError() *ScriptError {
	return &ScriptError{
		Kind:    KindZeroDivision,
		Message: "division by zero",
	}
}

// NewUndefinedVariableError creates an error for lookups of unbound names.
func NewUndefinedVariableError(name string) *ScriptError {
	return &ScriptError{
		Kind:    KindUndefinedVariable,
		Name:    name,
		Message: "variable is not defined",
	}
}

// NewUndefinedFunctionError creates an error for calls to unknown functions.
func NewUndefinedFunctionError(name string) *ScriptError {
	return &ScriptError{
		Kind:    KindUndefinedFunction,
		Name:    name,
		Message: "function is not defined",
	}
}

// NewArgumentError creates an error for calls with the wrong argument count.
func NewArgumentError(name, format string, args ...any) *ScriptError {
	return &ScriptError{
		Kind:    KindArgumentMismatch,
		Name:    name,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsKind reports whether err is, or wraps, a ScriptError of the given kind.
func IsKind(err error, kind Kind) bool {
	var se *ScriptError
	return errors.As(err, &se) && se.Kind == kind
}
