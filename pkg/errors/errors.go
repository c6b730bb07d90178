// Package errors provides common domain error types for the mint pipeline.
//
// This package defines sentinel errors for the pipeline's failure taxonomy:
// a required model capability being unavailable, a recoverable parse failure,
// a missing record, or a concurrent-update conflict. Using typed errors
// enables consistent handling with errors.Is() checks.
//
// Usage:
//
//	import mterrors "github.com/otherjamesbrown/mint-cli/pkg/errors"
//
//	// Return a domain error
//	return nil, mterrors.ErrNotFound
//
//	// Check for domain errors
//	if mterrors.IsNotFound(err) {
//	    // handle not found case
//	}
package errors

import (
	"errors"
	"fmt"
)

// Domain errors - common sentinel errors for pipeline conditions.
var (
	// ErrCapabilityUnavailable indicates a required model or service is
	// missing. Fatal for the calling stage; action scoring never absorbs it.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrParseFailure indicates a date or entity parse attempt failed.
	// Always recoverable: callers fall through to the next strategy.
	ErrParseFailure = errors.New("parse failure")

	// ErrNotFound indicates the referenced action or meeting does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a concurrent status-update race; the caller
	// should re-read and retry.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates invalid input or validation failure.
	ErrValidation = errors.New("validation error")
)

// IsCapabilityUnavailable reports whether any error in err's chain is ErrCapabilityUnavailable.
func IsCapabilityUnavailable(err error) bool {
	return errors.Is(err, ErrCapabilityUnavailable)
}

// IsParseFailure reports whether any error in err's chain is ErrParseFailure.
func IsParseFailure(err error) bool {
	return errors.Is(err, ErrParseFailure)
}

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether any error in err's chain is ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// StageError wraps a pipeline failure with the stage name and the input it
// was processing, so callers have enough context to log and retry the run.
type StageError struct {
	Stage   string
	InputID string
	Err     error
}

// NewStageError creates a StageError wrapping err.
func NewStageError(stage, inputID string, err error) *StageError {
	return &StageError{Stage: stage, InputID: inputID, Err: err}
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e.InputID == "" {
		return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("stage %s (input %s): %v", e.Stage, e.InputID, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As chains.
func (e *StageError) Unwrap() error {
	return e.Err
}
