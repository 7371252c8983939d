// Package errors provides a lightweight structured error type (ArchiveError)
// for category-based classification across actions, resolvers and writers.
package errors

import (
	"fmt"
)

// ErrorCategory classifies an ArchiveError for programmatic handling.
type ErrorCategory string

const (
	// User-facing input errors
	CategoryCatalog    ErrorCategory = "catalog"
	CategoryValidation ErrorCategory = "validation"

	// External collaborator errors
	CategoryResolver ErrorCategory = "resolver"
	CategoryProtocol ErrorCategory = "protocol"
	CategoryGit      ErrorCategory = "git"

	// Build and output errors
	CategoryConvert    ErrorCategory = "convert"
	CategoryMerge      ErrorCategory = "merge"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryPreview  ErrorCategory = "preview"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// ArchiveError is a structured error with category, severity and context.
type ArchiveError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for ArchiveError.
type ContextFields map[string]any

// Error implements the error interface.
func (e *ArchiveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling.
func (e *ArchiveError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *ArchiveError) WithContext(key string, value any) *ArchiveError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new ArchiveError.
func New(category ErrorCategory, severity ErrorSeverity, message string) *ArchiveError {
	return &ArchiveError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new ArchiveError that wraps an existing error.
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *ArchiveError {
	return &ArchiveError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category.
func IsCategory(err error, category ErrorCategory) bool {
	if ae, ok := err.(*ArchiveError); ok {
		return ae.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or CategoryInternal if
// the error is not an ArchiveError.
func GetCategory(err error) ErrorCategory {
	if ae, ok := err.(*ArchiveError); ok {
		return ae.Category
	}
	return CategoryInternal
}

// CatalogError creates a fatal catalog input error. Catalog errors abort the
// build before conversion starts.
func CatalogError(message string) *ArchiveError {
	return &ArchiveError{
		Category: CategoryCatalog,
		Severity: SeverityFatal,
		Message:  message,
	}
}

// FileSystemError wraps a write or create failure. Surfaced synchronously to
// the caller that scheduled the I/O.
func FileSystemError(err error, message string) *ArchiveError {
	return &ArchiveError{
		Category: CategoryFileSystem,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}

// ProtocolError marks an external resolver contract violation. Fatal for that
// resolver only, not for the build.
func ProtocolError(message string) *ArchiveError {
	return &ArchiveError{
		Category: CategoryProtocol,
		Severity: SeverityError,
		Message:  message,
	}
}
