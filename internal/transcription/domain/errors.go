package domain

import "errors"

var (
	// ErrRecordNotFound is returned when a response record cannot be found
	ErrRecordNotFound = errors.New("response record not found")

	// ErrAlreadyClaimed is returned when the pending->processing transition
	// finds the record already taken by a concurrent trigger
	ErrAlreadyClaimed = errors.New("record already claimed or not pending")

	// ErrPayloadUnavailable is returned when a record carries no usable
	// media reference or embedded data
	ErrPayloadUnavailable = errors.New("no video payload available in record")

	// ErrQuotaExhausted is reported by a transcription provider when the
	// account has no remaining credits. The processor answers it with the
	// synthetic transcript instead of a failure.
	ErrQuotaExhausted = errors.New("transcription quota exhausted")
)

// RetryableError wraps transient failures that happen before the record is
// claimed, so the intake can safely redeliver the trigger.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
