package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when an action is not legal from the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrMissingInput is returned when a required input is absent or blank
	ErrMissingInput = errors.New("missing input")

	// ErrInvalidInput is returned when an input is present but semantically invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrConcurrentModification is returned when the stored state no longer matches the caller's expectation
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrNotFound is returned when the article is unknown to the store
	ErrNotFound = errors.New("article not found")

	// ErrGuardFailed is returned when every guard of a permitted action rejects the inputs
	ErrGuardFailed = errors.New("guard condition failed")
)

// Error is a workflow failure carrying its kind and a machine-readable reason
type Error struct {
	Kind    error
	Reason  string
	From    State
	Action  Action
	message string
}

func newError(kind error, reason string, from State, action Action, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Reason:  reason,
		From:    from,
		Action:  action,
		message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.message)
}

// Message returns the human-readable detail without the kind prefix
func (e *Error) Message() string {
	return e.message
}

// Unwrap exposes the kind sentinel to errors.Is
func (e *Error) Unwrap() error {
	return e.Kind
}

// Kind names used on the wire
const (
	KindInvalidTransition      = "InvalidTransition"
	KindMissingInput           = "MissingInput"
	KindInvalidInput           = "InvalidInput"
	KindConcurrentModification = "ConcurrentModification"
	KindNotFound               = "NotFound"
	KindInternal               = "Internal"
)

// KindOf maps an error to its wire kind name
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrMissingInput):
		return KindMissingInput
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrGuardFailed):
		return KindInvalidInput
	case errors.Is(err, ErrConcurrentModification):
		return KindConcurrentModification
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// ReasonOf returns the machine-readable reason of a workflow error, if any
func ReasonOf(err error) string {
	var wfErr *Error
	if errors.As(err, &wfErr) {
		return wfErr.Reason
	}
	return ""
}

// NotFound builds the error a store returns for an unknown article
func NotFound(articleID int64) error {
	return newError(ErrNotFound, "article_not_found", "", "", "article %d", articleID)
}

// Conflict builds the error a store returns when a compare-and-swap fails
func Conflict(articleID int64, expected State, actual State) error {
	return newError(ErrConcurrentModification, "status_mismatch", actual, "",
		"article %d: expected status %s, found %s", articleID, expected, actual)
}

// NewError builds a workflow error for validation done outside the engine
func NewError(kind error, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, message: message}
}
