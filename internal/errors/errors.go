package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InvalidConfig indicates bad worker counts or missing collaborators
	InvalidConfig ErrorCode = "INVALID_CONFIG"
	// SourceUnavailable indicates an input path could not be read
	SourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
	// ParseFailure indicates malformed or absent source text
	ParseFailure ErrorCode = "PARSE_FAILURE"
	// DestinationUnavailable indicates a generated file could not be persisted
	DestinationUnavailable ErrorCode = "DESTINATION_UNAVAILABLE"
	// ArgumentFailure indicates a required input was absent
	ArgumentFailure ErrorCode = "ARGUMENT_FAILURE"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests changing a configuration value
	EditConfig FixActionType = "edit-config"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Description string        `json:"description,omitempty"`
}

// SkelgenError is an error with a stable code, a message and an optional cause.
type SkelgenError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// New creates a SkelgenError without an underlying cause.
func New(code ErrorCode, message string) *SkelgenError {
	return &SkelgenError{Code: code, Message: message}
}

// Newf creates a SkelgenError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *SkelgenError {
	return &SkelgenError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a SkelgenError around cause.
func Wrap(code ErrorCode, message string, cause error) *SkelgenError {
	return &SkelgenError{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *SkelgenError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *SkelgenError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *SkelgenError) WithDetails(details interface{}) *SkelgenError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first SkelgenError in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var se *SkelgenError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return InternalError
}

// Is reports whether err's tree contains a SkelgenError with the given code.
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	if se, ok := err.(*SkelgenError); ok && se.Code == code {
		return true
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if Is(e, code) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return Is(u.Unwrap(), code)
	}
	return false
}

// AggregateError bundles every unit-level fault of one run.
type AggregateError struct {
	Errors []error
}

// NewAggregate returns nil for an empty slice so callers can return it directly.
func NewAggregate(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: append([]error(nil), errs...)}
}

func (a *AggregateError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d unit(s) failed", len(a.Errors))
	for _, err := range a.Errors {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes members to errors.Is and errors.As.
func (a *AggregateError) Unwrap() []error {
	return a.Errors
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	InvalidConfig: {
		{
			Type:        RunCommand,
			Command:     "skelgen config show",
			Description: "Inspect the effective configuration; worker counts and queue size must be at least 1",
		},
	},
	SourceUnavailable: {
		{
			Type:        RunCommand,
			Command:     "ls -l <path>",
			Description: "Check that the input path exists and is readable",
		},
	},
	ParseFailure: {
		{
			Type:        EditConfig,
			Description: "Fix the syntax error or exclude the file with --exclude",
		},
	},
	DestinationUnavailable: {
		{
			Type:        EditConfig,
			Description: "Choose a writable output directory with --out",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}

// Hint returns a one-line suggestion for the CLI, or "" when there is none.
func Hint(code ErrorCode) string {
	fixes := GetSuggestedFixes(code)
	if len(fixes) == 0 {
		return ""
	}
	if fixes[0].Command != "" {
		return fixes[0].Description + " (" + fixes[0].Command + ")"
	}
	return fixes[0].Description
}
