package service

import (
	"errors"
	"fmt"

	"maitred/internal/models"
)

var (
	// ErrTooLateToCancel is returned when a cancellation arrives inside the
	// cutoff window before the reservation starts.
	ErrTooLateToCancel = errors.New("too late to cancel")

	// ErrTooLateToModify is returned when date/time/party changes arrive
	// inside the same cutoff window.
	ErrTooLateToModify = errors.New("too late to modify")

	// ErrTooSoon is returned when a new reservation starts sooner than the
	// minimum advance notice.
	ErrTooSoon = errors.New("reservation must be booked at least one hour ahead")

	// ErrNotOwner is returned when a non-staff caller acts on someone else's
	// reservation.
	ErrNotOwner = errors.New("not the reservation owner")
)

// InvalidTransitionError reports a lifecycle call from a state that does not
// permit it.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %q to %q", e.Entity, e.From, e.To)
}

// SlotBlockedError reports an availability check against a blocked date or slot.
type SlotBlockedError struct {
	Date   string
	Time   string
	Reason string
}

func (e *SlotBlockedError) Error() string {
	return fmt.Sprintf("slot %s %s unavailable: %s", e.Date, e.Time, e.Reason)
}

// CapacityError reports an availability failure with the numbers behind it.
type CapacityError struct {
	Requested int
	Remaining int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded: requested %d, remaining %d", e.Requested, e.Remaining)
}

// ConflictError carries the shifts colliding with a requested window so the
// caller can show which ones.
type ConflictError struct {
	Conflicts []*models.Shift
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("shift overlaps %d existing shift(s)", len(e.Conflicts))
}
