package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Directory listing errors (1xxx)
	ErrCodeDirectoryListing     ErrorCode = "DDE1001"
	ErrCodeAuthenticationFailed ErrorCode = "DDE1002"
	ErrCodeNetworkUnavailable   ErrorCode = "DDE1003"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound ErrorCode = "DDE2001"
	ErrCodeConfigInvalid  ErrorCode = "DDE2002"

	// Repository errors (3xxx)
	ErrCodeRepoSyncFailed ErrorCode = "DDE3001"
	ErrCodeCommitNotFound ErrorCode = "DDE3002"
	ErrCodeGit            ErrorCode = "DDE3003"
	ErrCodeInvalidState   ErrorCode = "DDE3004"
	ErrCodeArchiveFailed  ErrorCode = "DDE3005"

	// File system errors (5xxx)
	ErrCodeFileOperation ErrorCode = "DDE5001"

	// Credential errors (7xxx)
	ErrCodeCredentialStore ErrorCode = "DDE7001"

	// System errors (9xxx)
	ErrCodeInternal ErrorCode = "DDE9001"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL"
	SeverityError    ErrorSeverity = "ERROR"
	SeverityWarning  ErrorSeverity = "WARNING"
	SeverityInfo     ErrorSeverity = "INFO"
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another AppError with the same code
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  SeverityError,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	// Carry context of a wrapped AppError forward
	var ae *AppError
	if errors.As(err, &ae) {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// NotFound creates the error returned when no commit on a reference
// predates the cutoff.
func NotFound(ref string, cutoff time.Time) *AppError {
	return New(ErrCodeCommitNotFound,
		fmt.Sprintf("no commit on %s at or before %s", ref, cutoff.Format(time.RFC3339))).
		WithContext("ref", ref).
		WithContext("cutoff", cutoff)
}

// GitError wraps a failure of the version-control tool
func GitError(operation, repoPath string, cause error) *AppError {
	return Wrap(cause, ErrCodeGit, fmt.Sprintf("git %s failed", operation)).
		WithContext("operation", operation).
		WithContext("path", repoPath)
}

// ConfigError creates a configuration-related error
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'docsdiff config' to print the effective configuration",
		)
}

// IsNotFound reports whether err carries the commit NotFound condition
func IsNotFound(err error) bool {
	return errors.Is(err, &AppError{Code: ErrCodeCommitNotFound})
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}
