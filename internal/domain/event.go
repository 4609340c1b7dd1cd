package domain

import "time"

// SlotChangeEvent describes a committed mutation of a slot's status.
// It is the wire format of the change stream (SSE, Redis).
type SlotChangeEvent struct {
	ID         string     `json:"id"`
	LayoutID   int64      `json:"layoutId"`
	SlotID     int64      `json:"slotId"`
	Status     SlotStatus `json:"status"`
	BookingID  *int64     `json:"bookingId,omitempty"`
	Version    int64      `json:"version"`
	OccurredAt time.Time  `json:"occurredAt"`
}

// IsNewerThan returns true if the event describes a later state than the slot version
func (e SlotChangeEvent) IsNewerThan(version int64) bool {
	return e.Version > version
}
