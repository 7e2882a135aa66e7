// Package errors provides the error types surfaced by the operation
// dispatcher. Every call-tool failure is one of these or a transport error
// passed through unchanged; none of them crash the process.
package errors

import (
	"fmt"
	"strings"
)

// MissingArgumentsError indicates a call-tool request without an arguments
// object.
type MissingArgumentsError struct {
	Tool string
}

func (e *MissingArgumentsError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("no arguments provided for tool %q", e.Tool)
	}
	return "no arguments provided"
}

// UnknownOperationError indicates a tool name that matched no operationId in
// the API description.
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation: %s", e.Name)
}

// MissingParameterError indicates a required path parameter absent from the
// supplied arguments.
type MissingParameterError struct {
	Tool      string
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required path parameter: %s", e.Parameter)
}

// FieldError is one field-level validation failure.
type FieldError struct {
	Field   string
	Message string
}

// InvalidArgumentsError aggregates argument validation failures as
// "field: message" pairs joined by commas.
type InvalidArgumentsError struct {
	Fields []FieldError
}

func (e *InvalidArgumentsError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "invalid arguments: " + strings.Join(parts, ", ")
}

// NewInvalidArgumentsError creates an InvalidArgumentsError for a single
// field failure.
func NewInvalidArgumentsError(field, message string) *InvalidArgumentsError {
	return &InvalidArgumentsError{Fields: []FieldError{{Field: field, Message: message}}}
}

// UpstreamError indicates a non-success HTTP status from the Cloudflare API.
// The message carries the status text, never the response body.
type UpstreamError struct {
	StatusCode int
	Status     string // e.g. "404 Not Found"
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("API request failed: %s", e.Status)
}

// IsMissingArguments returns true if the error is a MissingArgumentsError.
func IsMissingArguments(err error) bool {
	_, ok := err.(*MissingArgumentsError)
	return ok
}

// IsUnknownOperation returns true if the error is an UnknownOperationError.
func IsUnknownOperation(err error) bool {
	_, ok := err.(*UnknownOperationError)
	return ok
}

// IsMissingParameter returns true if the error is a MissingParameterError.
func IsMissingParameter(err error) bool {
	_, ok := err.(*MissingParameterError)
	return ok
}

// IsInvalidArguments returns true if the error is an InvalidArgumentsError.
func IsInvalidArguments(err error) bool {
	_, ok := err.(*InvalidArgumentsError)
	return ok
}

// IsUpstream returns true if the error is an UpstreamError.
func IsUpstream(err error) bool {
	_, ok := err.(*UpstreamError)
	return ok
}
