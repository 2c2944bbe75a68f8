// Package apperr provides the error taxonomy shared by the orchestrator,
// supervisor, and facade. Errors are values that carry context about what
// went wrong; sentinels are checked with errors.Is for dispatch onto the
// UI's error event.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors, checked with errors.Is().
var (
	// ErrValidationFailed indicates a bad URL, filename template, or resolution string.
	ErrValidationFailed = errors.New("validation failed")

	// ErrStagingUnavailable indicates the staging or destination directory could not be created.
	ErrStagingUnavailable = errors.New("staging directory unavailable")

	// ErrSpawnFailed indicates the worker binary could not be launched.
	ErrSpawnFailed = errors.New("failed to spawn worker")

	// ErrWorkerFailed indicates the worker process returned a non-zero exit code.
	ErrWorkerFailed = errors.New("worker process failed")

	// ErrFilesystemNameFailure is a subset of ErrWorkerFailed whose captured
	// logs match a filename classifier, eligible for exactly one retry.
	ErrFilesystemNameFailure = errors.New("worker failed on filesystem name")

	// ErrMoveFailed indicates the finished output could not be relocated from staging.
	ErrMoveFailed = errors.New("failed to move output to destination")

	// ErrOutputMissing indicates the worker exited successfully but no final filename was determined.
	ErrOutputMissing = errors.New("worker succeeded but output filename is unknown")

	// ErrCancelled indicates the job was cancelled by the user.
	ErrCancelled = errors.New("cancelled by user")

	// ErrDuplicateJob indicates AddJob was called with an id already present.
	ErrDuplicateJob = errors.New("job id already exists")
)

// AppError is a structured error carrying the failing operation, the
// underlying cause, an optional user-facing message, and a code the UI can
// switch on.
type AppError struct {
	Op      string
	Err     error
	Message string
	Code    string
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the given operation and underlying error.
func New(op string, err error) *AppError {
	return &AppError{Op: op, Err: err}
}

// NewWithMessage creates a new AppError with a user-facing message.
func NewWithMessage(op string, err error, message string) *AppError {
	return &AppError{Op: op, Err: err, Message: message}
}

// NewWithCode creates a new AppError with a code for frontend dispatch.
func NewWithCode(op string, err error, code string, message string) *AppError {
	return &AppError{Op: op, Err: err, Code: code, Message: message}
}

// Wrap wraps an existing error with operation context. Returns nil for a nil error.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{Op: op, Err: err}
}

// IsCancelled reports whether err is or wraps ErrCancelled.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsValidationFailed reports whether err is or wraps ErrValidationFailed.
func IsValidationFailed(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}
