// Package errors provides structured error handling for codesweep with categorization,
// severity levels, and contextual information for better error management and debugging.
package errors

import (
	"fmt"
	"strings"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// ErrorTypeUnknown represents an unknown error type
	ErrorTypeUnknown ErrorType = iota

	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation

	// ErrorTypeAnalysis represents analyzer execution errors
	ErrorTypeAnalysis

	// ErrorTypeFix represents fix application errors
	ErrorTypeFix

	// ErrorTypeTool represents external tool invocation errors
	ErrorTypeTool

	// ErrorTypeGate represents quality gate evaluation errors
	ErrorTypeGate

	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork

	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration

	// ErrorTypeFileSystem represents file system errors
	ErrorTypeFileSystem

	// ErrorTypeGit represents git operation errors
	ErrorTypeGit

	// ErrorTypeGitHub represents GitHub API errors
	ErrorTypeGitHub

	// ErrorTypeSystem represents system-level errors
	ErrorTypeSystem
)

// String returns a string representation of the error type
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeAnalysis:
		return "analysis"
	case ErrorTypeFix:
		return "fix"
	case ErrorTypeTool:
		return "tool"
	case ErrorTypeGate:
		return "gate"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeConfiguration:
		return "configuration"
	case ErrorTypeFileSystem:
		return "filesystem"
	case ErrorTypeGit:
		return "git"
	case ErrorTypeGitHub:
		return "github"
	case ErrorTypeSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow represents low severity errors (warnings)
	SeverityLow Severity = iota

	// SeverityMedium represents medium severity errors (recoverable)
	SeverityMedium

	// SeverityHigh represents high severity errors (critical)
	SeverityHigh
)

// String returns a string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// sweepError represents a structured error with additional context
type sweepError struct {
	errorType   ErrorType
	severity    Severity
	message     string
	cause       error
	context     map[string]interface{}
	recoverable bool
	suggestions []string
}

// Error implements the error interface
func (e *sweepError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s:%s]", e.errorType.String(), e.severity.String()))
	parts = append(parts, e.message)

	if e.cause != nil {
		parts = append(parts, fmt.Sprintf("caused by: %s", e.cause.Error()))
	}

	return strings.Join(parts, " ")
}

// Type returns the error type
func (e *sweepError) Type() ErrorType {
	return e.errorType
}

// Severity returns the error severity
func (e *sweepError) Severity() Severity {
	return e.severity
}

// Cause returns the underlying cause of the error
func (e *sweepError) Cause() error {
	return e.cause
}

// Context returns the error context
func (e *sweepError) Context() map[string]interface{} {
	return e.context
}

// IsRecoverable returns whether the error is recoverable
func (e *sweepError) IsRecoverable() bool {
	return e.recoverable
}

// Suggestions returns suggested actions to resolve the error
func (e *sweepError) Suggestions() []string {
	return e.suggestions
}

// Unwrap returns the underlying error for compatibility with errors.Unwrap
func (e *sweepError) Unwrap() error {
	return e.cause
}

// ErrorBuilder helps construct structured errors
type ErrorBuilder struct {
	errorType   ErrorType
	severity    Severity
	message     string
	cause       error
	context     map[string]interface{}
	recoverable bool
	suggestions []string
}

// NewError creates a new error builder
func NewError(errorType ErrorType) *ErrorBuilder {
	return &ErrorBuilder{
		errorType:   errorType,
		severity:    SeverityMedium,
		context:     make(map[string]interface{}),
		recoverable: false,
		suggestions: []string{},
	}
}

// WithMessage sets the error message
func (eb *ErrorBuilder) WithMessage(message string) *ErrorBuilder {
	eb.message = message
	return eb
}

// WithMessagef sets the error message with formatting
func (eb *ErrorBuilder) WithMessagef(format string, args ...interface{}) *ErrorBuilder {
	eb.message = fmt.Sprintf(format, args...)
	return eb
}

// WithCause sets the underlying cause of the error
func (eb *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	eb.cause = cause
	return eb
}

// WithSeverity sets the error severity
func (eb *ErrorBuilder) WithSeverity(severity Severity) *ErrorBuilder {
	eb.severity = severity
	return eb
}

// WithContext adds context information
func (eb *ErrorBuilder) WithContext(key string, value interface{}) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

// WithRecoverable marks the error as recoverable
func (eb *ErrorBuilder) WithRecoverable(recoverable bool) *ErrorBuilder {
	eb.recoverable = recoverable
	return eb
}

// WithSuggestion adds a suggested action
func (eb *ErrorBuilder) WithSuggestion(suggestion string) *ErrorBuilder {
	eb.suggestions = append(eb.suggestions, suggestion)
	return eb
}

// WithSuggestions adds multiple suggested actions
func (eb *ErrorBuilder) WithSuggestions(suggestions ...string) *ErrorBuilder {
	eb.suggestions = append(eb.suggestions, suggestions...)
	return eb
}

// Build creates the final error
func (eb *ErrorBuilder) Build() error {
	return &sweepError{
		errorType:   eb.errorType,
		severity:    eb.severity,
		message:     eb.message,
		cause:       eb.cause,
		context:     eb.context,
		recoverable: eb.recoverable,
		suggestions: eb.suggestions,
	}
}

// Convenience functions for common error types

// ValidationError creates a validation error
func ValidationError(message string) error {
	return NewError(ErrorTypeValidation).
		WithMessage(message).
		WithSeverity(SeverityLow).
		WithRecoverable(true).
		Build()
}

// AnalysisError creates an analyzer execution error
func AnalysisError(analyzer string, cause error) error {
	return NewError(ErrorTypeAnalysis).
		WithMessagef("analyzer '%s' failed", analyzer).
		WithCause(cause).
		WithSeverity(SeverityMedium).
		WithRecoverable(true).
		WithContext("analyzer", analyzer).
		WithSuggestion("Check the file for encoding or syntax problems").
		Build()
}

// FixError creates a fix application error
func FixError(fixType string, filePath string, cause error) error {
	return NewError(ErrorTypeFix).
		WithMessagef("fix '%s' failed for %s", fixType, filePath).
		WithCause(cause).
		WithSeverity(SeverityMedium).
		WithRecoverable(true).
		WithContext("fix_type", fixType).
		WithContext("file_path", filePath).
		WithSuggestion("Restore the file from its backup if one was created").
		Build()
}

// ToolError creates an external tool invocation error
func ToolError(tool string, cause error) error {
	return NewError(ErrorTypeTool).
		WithMessagef("external tool '%s' failed", tool).
		WithCause(cause).
		WithSeverity(SeverityLow).
		WithRecoverable(true).
		WithContext("tool", tool).
		WithSuggestion(fmt.Sprintf("Verify that %s is installed and on PATH", tool)).
		Build()
}

// GateError creates a quality gate evaluation error
func GateError(gate string, cause error) error {
	return NewError(ErrorTypeGate).
		WithMessagef("quality gate '%s' evaluation failed", gate).
		WithCause(cause).
		WithSeverity(SeverityMedium).
		WithRecoverable(true).
		WithContext("gate", gate).
		WithSuggestion("Check the gate name and threshold configuration").
		Build()
}

// NetworkError creates a network error
func NetworkError(cause error) error {
	return NewError(ErrorTypeNetwork).
		WithMessage("network operation failed").
		WithCause(cause).
		WithSeverity(SeverityMedium).
		WithRecoverable(true).
		WithSuggestion("Check your internet connection").
		WithSuggestion("Verify proxy settings if applicable").
		Build()
}

// ConfigurationError creates a configuration error
func ConfigurationError(message string) error {
	return NewError(ErrorTypeConfiguration).
		WithMessage(message).
		WithSeverity(SeverityHigh).
		WithRecoverable(true).
		WithSuggestion("Check your configuration file").
		WithSuggestion("Verify the .codesweep.yaml syntax").
		Build()
}

// FileSystemError creates a file system error
func FileSystemError(path string, cause error) error {
	return NewError(ErrorTypeFileSystem).
		WithMessagef("file operation failed for %s", path).
		WithCause(cause).
		WithSeverity(SeverityMedium).
		WithRecoverable(true).
		WithContext("path", path).
		WithSuggestion("Check file permissions and available disk space").
		Build()
}

// GitError creates a git operation error
func GitError(operation string, cause error) error {
	return NewError(ErrorTypeGit).
		WithMessagef("git %s failed", operation).
		WithCause(cause).
		WithSeverity(SeverityMedium).
		WithRecoverable(true).
		WithContext("operation", operation).
		WithSuggestion("Check git repository status").
		WithSuggestion("Ensure you have proper git permissions").
		Build()
}

// GitHubError creates a GitHub API error
func GitHubError(operation string, cause error) error {
	return NewError(ErrorTypeGitHub).
		WithMessagef("GitHub %s failed", operation).
		WithCause(cause).
		WithSeverity(SeverityMedium).
		WithRecoverable(true).
		WithContext("operation", operation).
		WithSuggestion("Check GitHub authentication").
		WithSuggestion("Verify repository permissions").
		WithSuggestion("Check GitHub API rate limits").
		Build()
}

// Type checking functions

// IsType checks if an error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if swErr, ok := err.(*sweepError); ok {
		return swErr.Type() == errorType
	}
	return false
}

// IsSeverity checks if an error has a specific severity
func IsSeverity(err error, severity Severity) bool {
	if swErr, ok := err.(*sweepError); ok {
		return swErr.Severity() == severity
	}
	return false
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	if swErr, ok := err.(*sweepError); ok {
		return swErr.IsRecoverable()
	}
	return false
}

// GetSuggestions extracts suggestions from an error
func GetSuggestions(err error) []string {
	if swErr, ok := err.(*sweepError); ok {
		return swErr.Suggestions()
	}
	return []string{}
}

// GetContext extracts context from an error
func GetContext(err error) map[string]interface{} {
	if swErr, ok := err.(*sweepError); ok {
		return swErr.Context()
	}
	return nil
}
