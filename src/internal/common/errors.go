package common

import (
	"java-lsp/src/internal/errors"
)

// Convenience wrappers over the unified error system.

// WrapProcessingError wraps an error with operation context for better error messages
func WrapProcessingError(operation string, err error) error {
	return errors.WrapWithContext(operation, err)
}

// ParameterValidationError creates a formatted parameter validation error
func ParameterValidationError(msg string) error {
	return errors.NewValidationError("parameter", msg)
}

// CreateValidationErrorForURI creates a validation error for URI-related issues
func CreateValidationErrorForURI(msg string) error {
	return errors.NewValidationError("uri", msg)
}

// NotImplemented creates an error for a method that intentionally has no implementation
func NotImplemented(method string) error {
	return errors.NewNotImplementedError(method)
}

// PreconditionViolation creates a contract-violation error
func PreconditionViolation(msg string) error {
	return errors.NewPreconditionError(msg)
}
