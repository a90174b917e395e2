package myerrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("resource not found")
	ErrSeatUnavailable = errors.New("seat is not available")
	ErrTripNotOpen     = errors.New("trip is not open for sale")
	ErrSeatHeld        = errors.New("seat is held by another session")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransitionError reports an illegal ticket status change.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move ticket from %s to %s", e.From, e.To)
}
