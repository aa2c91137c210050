package database

import "errors"

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCapacityExceeded is returned by checked reservation writes when the
	// requested party no longer fits the slot's effective capacity.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrShiftConflict is returned by checked shift writes when the window
	// overlaps another active shift of the same employee.
	ErrShiftConflict = errors.New("shift conflict")

	// ErrConcurrentModification is returned when a versioned update loses the
	// race against another writer.
	ErrConcurrentModification = errors.New("concurrent modification")
)
