package domain

import (
	"errors"
	"fmt"
)

type ValidationCode string

const (
	CodeSlotFull           ValidationCode = "slot_full"
	CodeDurationOutOfRange ValidationCode = "duration_out_of_range"
	CodeEndBeforeStart     ValidationCode = "end_before_start"
	CodeInvalidSlot        ValidationCode = "invalid_slot"
	CodeNotFound           ValidationCode = "not_found"
)

// ValidationError is rejected input: never retried, surfaced to the user
// with its code so "slot full" is distinguishable from other rejections.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(code ValidationCode, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsValidation unwraps a validation error from an error chain.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// UnreachableError is a network-class failure talking to the central
// database. Reads recover from it by falling back to the local cache;
// writes surface it and roll back optimistic state.
type UnreachableError struct {
	Op  string
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("central unreachable during %s: %v", e.Op, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

func NewUnreachableError(op string, err error) *UnreachableError {
	return &UnreachableError{Op: op, Err: err}
}

func IsUnreachable(err error) bool {
	var ue *UnreachableError
	return errors.As(err, &ue)
}
