package model

import (
	"errors"
)

// Error kinds. A *RelayError unwraps to exactly one of these.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNonceConflict = errors.New("nonce conflict")
	ErrSubmission    = errors.New("submission failed")
)

var (
	ErrUnknownAction  = errors.New("unknown action")
	ErrMissingScore   = errors.New("score is required")
	ErrInvalidSubject = errors.New("subject is not a valid address")
)

// RelayError is the error resolved into a request outcome.
type RelayError struct {
	Kind   error
	Action string
	Err    error
}

func (e *RelayError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *RelayError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NewValidationError(action string, err error) error {
	return &RelayError{Kind: ErrValidation, Action: action, Err: err}
}

func NewSubmissionError(action string, err error) error {
	return &RelayError{Kind: ErrSubmission, Action: action, Err: err}
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
