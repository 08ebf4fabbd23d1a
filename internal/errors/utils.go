package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context, creating a PipelineError if the
// input is not already one. The path of the first PipelineError found in the
// chain is carried over.
func Wrap(err error, errType ErrorType, code, message string) *PipelineError {
	if err == nil {
		return nil
	}

	var pe *PipelineError
	if errors.As(err, &pe) {
		return &PipelineError{
			Type:    errType,
			Code:    code,
			Message: message,
			Path:    pe.Path,
			Cause:   err,
		}
	}

	return &PipelineError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// ReadFailed wraps an error raised while reading path.
func ReadFailed(path string, cause error) *PipelineError {
	return NewIOError(ErrCodeRead, "failed to read", cause).WithPath(path)
}

// WriteFailed wraps an error raised while writing path.
func WriteFailed(path string, cause error) *PipelineError {
	return NewIOError(ErrCodeWrite, "failed to write", cause).WithPath(path)
}

// InvalidPattern wraps a regular expression compilation failure.
func InvalidPattern(pattern string, cause error) *PipelineError {
	return NewConfigError(
		ErrCodeInvalidPattern,
		fmt.Sprintf("invalid pattern %q", pattern),
		cause,
	)
}
