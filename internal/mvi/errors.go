package mvi

import (
	"errors"
	"fmt"
)

// ErrDisposed is returned when an operation targets a disposed feature.
var ErrDisposed = errors.New("feature disposed")

// RuntimeError represents a fault detected while a feature runs.
//
// Runtime errors include:
//   - Actor panic: a collaborator panicked inside an Async actor body
//   - Unknown variant: an element received a value outside its closed set
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Feature names the feature involved, if known.
	Feature string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeActorPanic indicates an actor body panicked and was recovered.
	ErrCodeActorPanic RuntimeErrorCode = "ACTOR_PANIC"

	// ErrCodeUnknownVariant indicates a value outside a closed variant set.
	// This is a programmer error and is raised with panic.
	ErrCodeUnknownVariant RuntimeErrorCode = "UNKNOWN_VARIANT"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Feature != "" {
		msg = fmt.Sprintf("%s (feature=%s)", msg, e.Feature)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsActorPanic returns true if err is a recovered actor panic.
// Uses errors.As to handle wrapped errors.
func IsActorPanic(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeActorPanic
	}
	return false
}

// Unhandled builds the error an element panics with when it meets a value
// outside its closed variant set:
//
//	default:
//	    panic(mvi.Unhandled("effect", effect))
func Unhandled(kind string, v any) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeUnknownVariant,
		Message: fmt.Sprintf("unhandled %s variant %T", kind, v),
	}
}
