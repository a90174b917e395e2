package myerrors

import (
	"errors"
	"fmt"
	"strings"

	"busline/internal/scheduling-service/core/domain/model"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrCrossCooperativa = errors.New("resource belongs to another cooperativa")

	ErrDuplicateTrip = errors.New("trip already exists for this frequency, date and bus")
	ErrBusInactive   = errors.New("bus is not active")

	ErrNotADriver       = errors.New("user does not have the driver role")
	ErrDriverOverlap    = errors.New("driver has an overlapping trip on that date")
	ErrDriverOtherBus   = errors.New("driver is already assigned to another bus on that date")
	ErrDriverInProgress = errors.New("driver already has a trip in progress")
)

// ConflictError is returned by the frequency validator when another active
// frequency of the same bus group departs at the same instant on shared days.
type ConflictError struct {
	Days []model.Weekday
	Time string
}

func (e *ConflictError) Error() string {
	days := make([]string, 0, len(e.Days))
	for _, d := range e.Days {
		days = append(days, string(d))
	}
	return fmt.Sprintf("days [%s] at %s are already taken by another frequency in this bus group",
		strings.Join(days, ", "), e.Time)
}

// ValidationError marks malformed input, distinct from scheduling conflicts.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
