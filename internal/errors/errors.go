// Package errors provides the error taxonomy shared by the tree and trace builders.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeEncoding indicates a level value that cannot be encoded into a path
	TypeEncoding Type = "ENCODING_ERROR"

	// TypeDuplicateNode indicates two logical nodes resolving to the same path,
	// or a parent path that cannot be resolved during construction
	TypeDuplicateNode Type = "DUPLICATE_NODE"

	// TypeMetricNotFound indicates a requested metric missing from the aggregated table
	TypeMetricNotFound Type = "METRIC_NOT_FOUND"

	// TypeAttributeNotFound indicates a name that is neither a metric nor a calculation
	TypeAttributeNotFound Type = "ATTRIBUTE_NOT_FOUND"

	// TypeFormatKind indicates an unrecognized numeric kind in a format specification
	TypeFormatKind Type = "FORMAT_KIND_ERROR"

	// TypeCardinality indicates too many distinct subplots or colours
	TypeCardinality Type = "CARDINALITY_ERROR"

	// TypeDivisionByZero indicates a ratio with a zero denominator
	TypeDivisionByZero Type = "DIVISION_BY_ZERO"

	// TypeInput indicates an input validation error
	TypeInput Type = "INPUT_ERROR"

	// TypeParsing indicates a parsing error
	TypeParsing Type = "PARSING_ERROR"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{Type: errType, Message: message}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{Type: errType, Message: message, Cause: cause}
}

// IsType reports whether any error in err's chain is an *Error of type t.
func IsType(err error, t Type) bool {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Type == t {
			return true
		}
		err = e.Cause
	}
	return false
}

// TypeOf returns the type of the outermost *Error in err's chain, or "".
func TypeOf(err error) Type {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ""
}

// Encoding creates an encoding error for a level value containing the separator
func Encoding(value, separator string) *Error {
	return Newf(TypeEncoding, "level value %q contains path separator %q", value, separator).
		WithContext("value", value)
}

// DuplicateNode creates a duplicate node error
func DuplicateNode(path string) *Error {
	return Newf(TypeDuplicateNode, "node path is not unique: %s", path).WithContext("path", path)
}

// NodeNotFound creates a construction error for an unresolved parent path.
// It shares the duplicate-node type: both mean the depth ordering was violated.
func NodeNotFound(path string) *Error {
	return Newf(TypeDuplicateNode, "node does not exist: %s", path).WithContext("path", path)
}

// MetricNotFound creates a metric not found error
func MetricNotFound(metric string) *Error {
	return Newf(TypeMetricNotFound, "metric '%s' not in table columns", metric).WithContext("metric", metric)
}

// AttributeNotFound creates an attribute not found error
func AttributeNotFound(name, path string) *Error {
	return Newf(TypeAttributeNotFound, "%q is neither a metric nor a calculation on node %s", name, path).
		WithContext("name", name)
}

// FormatKind creates a format kind error
func FormatKind(kind string) *Error {
	return Newf(TypeFormatKind, "kind should be 'int', 'float' or 'percent', got %q instead", kind)
}

// Cardinality creates a cardinality error
func Cardinality(what string, got, max int) *Error {
	return Newf(TypeCardinality, "number of %s exceeds maximum: %d > %d", what, got, max)
}

// DivisionByZero creates a division by zero error
func DivisionByZero(numerator, denominator string) *Error {
	return Newf(TypeDivisionByZero, "cannot divide %s by zero-valued %s", numerator, denominator)
}

// Input creates an input error
func Input(message string) *Error {
	return New(TypeInput, message)
}

// Parsing creates a parsing error
func Parsing(message string, cause error) *Error {
	return Wrap(TypeParsing, message, cause)
}

// Config creates a configuration error
func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
