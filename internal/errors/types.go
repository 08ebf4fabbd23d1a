// Package errors defines the structured error taxonomy shared by the asset and
// template pipeline. Every failure surfaced to the command line is a
// *PipelineError carrying a type, a stable code and, when known, the path that
// caused it.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	// ErrorTypeConfig covers malformed configuration, e.g. an ignore pattern
	// that does not compile. Raised before any traversal starts.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeIO covers unreadable sources and unwritable destinations.
	ErrorTypeIO ErrorType = "io"
	// ErrorTypeBuild covers a build pass that reports failure.
	ErrorTypeBuild ErrorType = "build"
	// ErrorTypeCompression covers a missing or failing script compressor.
	ErrorTypeCompression ErrorType = "compression"
)

// Common error codes.
const (
	ErrCodeInvalidPattern        = "ERR_INVALID_PATTERN"
	ErrCodeInvalidConfig         = "ERR_INVALID_CONFIG"
	ErrCodeRead                  = "ERR_READ"
	ErrCodeWrite                 = "ERR_WRITE"
	ErrCodeWalk                  = "ERR_WALK"
	ErrCodeNoAssets              = "ERR_NO_ASSETS"
	ErrCodeBuildFailed           = "ERR_BUILD_FAILED"
	ErrCodeChangesDetected       = "ERR_CHANGES_DETECTED"
	ErrCodeCompressorUnavailable = "ERR_COMPRESSOR_UNAVAILABLE"
	ErrCodeCompressorFailed      = "ERR_COMPRESSOR_FAILED"
)

// PipelineError is a structured error type with context.
type PipelineError struct {
	Type    ErrorType
	Code    string
	Message string
	Path    string
	Cause   error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Path != "" {
		parts = append(parts, e.Path+":")
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *PipelineError of the same type and code.
func (e *PipelineError) Is(target error) bool {
	var t *PipelineError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithPath attaches the offending file path.
func (e *PipelineError) WithPath(path string) *PipelineError {
	e.Path = path

	return e
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewBuildError creates a build error.
func NewBuildError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeBuild,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewCompressionError creates a compression error.
func NewCompressionError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeCompression,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrCompressorUnavailable is returned when a template asks for inline script
// compression and no compressor is configured.
var ErrCompressorUnavailable = NewCompressionError(
	ErrCodeCompressorUnavailable,
	"no script compressor configured (set --compressor or --compiler-jar)",
	nil,
)

// ErrChangesDetected is returned by check commands when at least one source
// differs from its built counterpart.
var ErrChangesDetected = NewBuildError(ErrCodeChangesDetected, "changes detected", nil)

func isType(err error, errType ErrorType) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type == errType
	}

	return false
}

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool {
	return isType(err, ErrorTypeConfig)
}

// IsIOError checks if an error is I/O-related.
func IsIOError(err error) bool {
	return isType(err, ErrorTypeIO)
}

// IsBuildError checks if an error is build-related.
func IsBuildError(err error) bool {
	return isType(err, ErrorTypeBuild)
}

// IsCompressionError checks if an error is compression-related.
func IsCompressionError(err error) bool {
	return isType(err, ErrorTypeCompression)
}
