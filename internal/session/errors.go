package session

import (
	"errors"
	"fmt"
)

// Errors.
var (
	ErrBusy           = errors.New("another transaction is still pending")
	ErrReverted       = errors.New("transaction reverted")
	ErrConfirmTimeout = errors.New("transaction not confirmed in time")
)

// ValidationError reports user input rejected before anything is submitted.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// SubmissionError wraps a write call the wallet or node rejected.
type SubmissionError struct {
	Action string
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Action, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
