// Package errors provides unified error types and codes for the language server.
package errors

import (
	"errors"
	"fmt"
)

// Standard JSON-RPC error codes as defined in the specification
const (
	ParseError     = -32700 // Invalid JSON was received by the server
	InvalidRequest = -32600 // The JSON sent is not a valid Request object
	MethodNotFound = -32601 // The method does not exist / is not available
	InvalidParams  = -32602 // Invalid method parameter(s)
	InternalError  = -32603 // Internal JSON-RPC error
)

// LSP-specific error codes
const (
	ServerNotInitialized = -32002 // Server not initialized
	RequestFailed        = -32803 // Request failed with unrecoverable error
)

// LSPError represents a standard LSP error with code and optional data
type LSPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *LSPError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("LSP error %d: %s (data: %v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("LSP error %d: %s", e.Code, e.Message)
}

// ValidationError represents parameter validation errors
type ValidationError struct {
	Parameter string `json:"parameter"`
	Message   string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for parameter '%s': %s", e.Parameter, e.Message)
}

// NotImplementedError marks a request for a feature that intentionally has no
// implementation. These fail hard instead of silently returning nothing.
type NotImplementedError struct {
	Method string `json:"method"`
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("method %s is not implemented", e.Method)
}

// PreconditionError represents a programming-contract violation, such as
// building a compiler before the workspace root is known.
type PreconditionError struct {
	Message string `json:"message"`
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition violated: %s", e.Message)
}

// Error constructors

// NewLSPError creates a new LSP error with specified code, message, and optional data
func NewLSPError(code int, message string, data interface{}) *LSPError {
	return &LSPError{Code: code, Message: message, Data: data}
}

// NewValidationError creates a new validation error for the specified parameter
func NewValidationError(parameter, message string) *ValidationError {
	return &ValidationError{Parameter: parameter, Message: message}
}

// NewNotImplementedError creates an error for an unimplemented method
func NewNotImplementedError(method string) *NotImplementedError {
	return &NotImplementedError{Method: method}
}

// NewPreconditionError creates a contract-violation error
func NewPreconditionError(message string) *PreconditionError {
	return &PreconditionError{Message: message}
}

// WrapWithContext wraps an error with operation context for better error messages
func WrapWithContext(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", operation, err)
}

// Error predicates

// IsValidationError reports whether err is a parameter validation error
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotImplementedError reports whether err marks an unimplemented method
func IsNotImplementedError(err error) bool {
	var target *NotImplementedError
	return errors.As(err, &target)
}

// IsPreconditionError reports whether err is a contract violation
func IsPreconditionError(err error) bool {
	var target *PreconditionError
	return errors.As(err, &target)
}

// CodeFor maps an error to the JSON-RPC error code it should be reported with
func CodeFor(err error) int {
	var lspErr *LSPError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &lspErr):
		return lspErr.Code
	case IsValidationError(err):
		return InvalidParams
	case IsNotImplementedError(err):
		return MethodNotFound
	case IsPreconditionError(err):
		return ServerNotInitialized
	default:
		return InternalError
	}
}
