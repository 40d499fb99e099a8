// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies command errors so scripts can tell bad
// input from a backend that is down without parsing message text.
type ErrorCategory string

const (
	// CategoryValidation: bad flags or configuration. Fix the input.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound: a referenced file or socket does not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryTransient: the index service or a store failed in a way
	// a retry may fix.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal: anything unexpected.
	CategoryInternal ErrorCategory = "internal"
)

// exitCodes maps categories to process exit codes. Internal and
// uncategorized errors exit 1.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryNotFound:   3,
	CategoryTransient:  4,
	CategoryInternal:   1,
}

// ToolError is a categorized error returned by the binaries' run
// functions. It wraps an inner error, so errors.Is and errors.As see
// through it. Use the category constructors rather than building one
// directly.
type ToolError struct {
	Category ErrorCategory
	Err      error

	// Hint is an optional next step for the user, printed after the
	// message.
	Hint string
}

// Error returns the message, followed by the hint when there is one.
func (e *ToolError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

// Unwrap returns the underlying error.
func (e *ToolError) Unwrap() error { return e.Err }

// WithHint sets the hint and returns the receiver for chaining.
func (e *ToolError) WithHint(hint string) *ToolError {
	e.Hint = hint
	return e
}

// ExitCode is the process exit code for the category.
func (e *ToolError) ExitCode() int {
	if code, ok := exitCodes[e.Category]; ok {
		return code
	}
	return 1
}

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Transient creates a transient error: a temporary failure that may
// succeed on retry.
func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// ExitCode returns the exit code for err: 0 for nil, the category's
// code for a ToolError anywhere in the chain, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return 1
}
