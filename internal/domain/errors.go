package domain

import "errors"

// Error taxonomy shared by every layer that talks about slot allocation.
// Layer-specific errors wrap these so callers can match with errors.Is.
var (
	// ErrValidation malformed input, caller's fault, not retried
	ErrValidation = errors.New("validation error")

	// ErrLayoutNotFound stale layout reference
	ErrLayoutNotFound = errors.New("layout not found")

	// ErrSlotNotFound stale slot reference, caller should re-fetch
	ErrSlotNotFound = errors.New("slot not found")

	// ErrBookingNotFound stale booking reference
	ErrBookingNotFound = errors.New("booking not found")

	// ErrSlotOccupied the slot was taken, possibly by a concurrent request; never blind-retry
	ErrSlotOccupied = errors.New("slot occupied")

	// ErrSlotAlreadyAvailable the slot was released, possibly by a concurrent request
	ErrSlotAlreadyAvailable = errors.New("slot already available")

	// ErrTransientIO storage or network hiccup: reads may be retried,
	// writes only after re-reading current state
	ErrTransientIO = errors.New("transient io error")

	// ErrPartialWrite booking and slot status writes diverged (data-integrity incident)
	ErrPartialWrite = errors.New("partial write")

	// ErrOutcomeUnknown the write may or may not have committed; re-read before retrying
	ErrOutcomeUnknown = errors.New("outcome unknown")
)
