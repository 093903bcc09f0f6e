package wizard

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrFinalStep         = errors.New("already on the final step")
	ErrStepBlocked       = errors.New("step has invalid fields")
	ErrSubmitInProgress  = errors.New("submission already in progress")
	ErrSubmitTimeout     = errors.New("submission timed out")
	ErrAbandoned         = errors.New("submission abandoned")
	ErrUnknownField      = errors.New("unknown field")
	ErrDerivedField      = errors.New("field is computed and cannot be set")
	ErrNoSubmitter       = errors.New("no submitter configured")
	ErrNoLoader          = errors.New("no loader configured")
)

// StepBlockedError is returned when a step (or the whole form on submit)
// fails validation. Field names the first failing field for focus.
type StepBlockedError struct {
	Step    int
	Field   string
	Message string
}

func (e *StepBlockedError) Error() string {
	return fmt.Sprintf("step %d blocked: %s: %s", e.Step+1, e.Field, e.Message)
}

func (e *StepBlockedError) Is(target error) bool {
	return target == ErrStepBlocked
}

// SubmissionError wraps a failed submission. The form data is kept so the
// user can retry.
type SubmissionError struct {
	Err       error
	Retryable bool
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

func transitionError(op string, from Stage) error {
	return fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, op, from)
}
