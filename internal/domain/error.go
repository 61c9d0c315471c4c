package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Registration flow
	ErrNoDraft           = errors.New("no registration in progress")
	ErrWrongStep         = errors.New("action does not belong to the current step")
	ErrBusy              = errors.New("another action is still in progress")
	ErrAlreadyRegistered = errors.New("user is already registered")
	ErrUnderage          = errors.New("user must be at least 18 years old")
	ErrHobbyLimit        = errors.New("hobby limit reached")
	ErrPhotoLimit        = errors.New("photo limit reached")
	ErrPhotoCount        = errors.New("photo count out of range")

	// Finalize sequence
	ErrNoConnectivity = errors.New("no network connection")
	ErrSubmitTimeout  = errors.New("profile submission timed out")
)

// ValidationError reports a local, synchronous input problem on a wizard step.
// The draft is never modified when one is returned.
type ValidationError struct {
	Step   int
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("step %d: %s: %v", e.Step, e.Reason, e.Err)
	}
	return fmt.Sprintf("step %d: %s", e.Step, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// UploadError identifies the photo (1-based) that failed every upload attempt.
type UploadError struct {
	Index int
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("photo %d upload failed: %v", e.Index, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// NewValidationError is a small helper used by the registration validators.
func NewValidationError(step int, reason string, err error) *ValidationError {
	return &ValidationError{Step: step, Reason: reason, Err: err}
}
