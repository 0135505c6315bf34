package errors

import (
	"errors"
	"fmt"
)

// GenError is the structured error type for microgen.
// It provides rich context for error handling, logging, and user presentation.
type GenError struct {
	// Code is the unique error code (e.g., "ERR_301_TEMPLATE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Template, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *GenError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *GenError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with GenError.
func (e *GenError) Is(target error) bool {
	if t, ok := target.(*GenError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *GenError) WithDetail(key, value string) *GenError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *GenError) WithSuggestion(suggestion string) *GenError {
	e.Suggestion = suggestion
	return e
}

// New creates a new GenError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *GenError {
	return &GenError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a GenError from an existing error.
// The error's message becomes the GenError message.
func Wrap(code string, err error) *GenError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *GenError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// TemplateNotFound reports a template ID that does not resolve under the template root.
func TemplateNotFound(id string, cause error) *GenError {
	return New(ErrCodeTemplateNotFound, fmt.Sprintf("template not found: %s", id), cause).
		WithDetail("template", id)
}

// ProjectNotInitialized reports a missing or unparseable marker file.
func ProjectNotInitialized(root string, cause error) *GenError {
	return New(ErrCodeProjectNotInitialized,
		fmt.Sprintf("project at %s is not initialized (go.mod with a module line is required)", root), cause).
		WithDetail("root", root).
		WithSuggestion("Run 'microgen init <name>' first, or pass -C to point at the project root")
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *GenError {
	return New(ErrCodeInternal, message, cause)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	var ge *GenError
	if errors.As(err, &ge) {
		return ge.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from the first GenError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var ge *GenError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// GetCategory extracts the category from the first GenError in the chain.
// Returns empty string if there is none.
func GetCategory(err error) Category {
	var ge *GenError
	if errors.As(err, &ge) {
		return ge.Category
	}
	return ""
}

// HasCode reports whether any GenError in the chain carries code.
func HasCode(err error, code string) bool {
	return errors.Is(err, &GenError{Code: code})
}
