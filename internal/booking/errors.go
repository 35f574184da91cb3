package booking

import "errors"

// The reservation error taxonomy. Callers must be able to tell a slot
// conflict apart from everything else: the right UI recovery for a conflict
// is "refresh availability and pick again", not a blind retry.
var (
	// ErrSlotConflict means the slot was confirmed-booked by someone else.
	ErrSlotConflict = errors.New("slot already booked")

	// ErrInvalidSlot means the requested hour is outside the venue's
	// operating window, or the date is malformed or in the past.
	ErrInvalidSlot = errors.New("invalid slot")

	// ErrUnauthorized means no requester identity was supplied.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrVenueNotFound means the venue does not exist or is delisted.
	ErrVenueNotFound = errors.New("venue not found")

	// ErrStoreUnavailable means the persistence layer failed. Fail closed:
	// no booking may be assumed created.
	ErrStoreUnavailable = errors.New("booking store unavailable")

	// ErrBookingNotFound means no booking exists with the given ID.
	ErrBookingNotFound = errors.New("booking not found")
)
