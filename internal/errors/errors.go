// Package errors provides a lightweight structured error type (PackError)
// for category-based classification and exit-code mapping in the CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a wixpack error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Source tree errors detected during traversal
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryNotADirectory ErrorCategory = "not_a_directory"
	CategoryCycle         ErrorCategory = "cycle"
	CategoryEmptyTree     ErrorCategory = "empty_tree"

	// Manifest construction errors
	CategoryIdentifierCollision ErrorCategory = "identifier_collision"
	CategoryEncoding            ErrorCategory = "encoding"

	// External toolchain and infrastructure errors
	CategoryToolchain ErrorCategory = "toolchain"
	CategoryInternal  ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// PackError is a structured error with category, severity, and context
type PackError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for PackError
type ContextFields map[string]any

// Error implements the error interface
func (e *PackError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *PackError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *PackError) WithContext(key string, value any) *PackError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new PackError
func New(category ErrorCategory, severity ErrorSeverity, message string) *PackError {
	return &PackError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new PackError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *PackError {
	return &PackError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if pe, ok := err.(*PackError); ok {
		return pe.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a PackError
func GetCategory(err error) ErrorCategory {
	if pe, ok := err.(*PackError); ok {
		return pe.Category
	}
	return CategoryInternal
}

// ValidationError creates a new validation error
func ValidationError(message string) *PackError {
	return &PackError{
		Category: CategoryValidation,
		Severity: SeverityError,
		Message:  message,
	}
}

// ConfigError creates a new configuration error
func ConfigError(message string) *PackError {
	return &PackError{
		Category: CategoryConfig,
		Severity: SeverityError,
		Message:  message,
	}
}

// NotFoundError reports a missing source root.
func NotFoundError(path string) *PackError {
	return New(CategoryNotFound, SeverityFatal, fmt.Sprintf("source directory not found: %s", path)).
		WithContext("path", path)
}

// NotADirectoryError reports a source root that is a regular file.
func NotADirectoryError(path string) *PackError {
	return New(CategoryNotADirectory, SeverityFatal, fmt.Sprintf("source root is not a directory: %s", path)).
		WithContext("path", path)
}

// CycleError reports a symbolic-link cycle discovered during traversal.
func CycleError(path string) *PackError {
	return New(CategoryCycle, SeverityFatal, fmt.Sprintf("symbolic link cycle detected at: %s", path)).
		WithContext("path", path)
}

// EmptyTreeError reports a source tree containing zero files.
func EmptyTreeError(path string) *PackError {
	return New(CategoryEmptyTree, SeverityFatal, fmt.Sprintf("source tree contains no files: %s", path)).
		WithContext("path", path)
}

// IdentifierCollisionError reports an identifier collision that survived disambiguation.
func IdentifierCollisionError(path, id string) *PackError {
	return New(CategoryIdentifierCollision, SeverityFatal,
		fmt.Sprintf("cannot allocate a unique identifier for %s (candidate %q exceeds format limits)", path, id)).
		WithContext("path", path).
		WithContext("identifier", id)
}

// EncodingError reports a path that cannot be represented in the manifest encoding.
func EncodingError(path string) *PackError {
	return New(CategoryEncoding, SeverityFatal,
		fmt.Sprintf("path contains characters not representable in the manifest encoding: %s", path)).
		WithContext("path", path)
}

// WrapError wraps an existing error with a new PackError at SeverityError.
func WrapError(err error, category ErrorCategory, message string) *PackError {
	return &PackError{
		Category: category,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}
