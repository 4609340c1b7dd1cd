package domain

import "time"

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingApproved BookingStatus = "approved"
	BookingReleased BookingStatus = "released"
)

// Booking represents a time-bounded claim on a slot by a specific vehicle.
// Bookings are append-only history: release marks them, it never deletes them.
type Booking struct {
	ID            int64
	SlotID        int64
	LayoutID      int64
	CustomerName  string
	VehicleNumber string
	VehicleType   string
	DurationHours int
	StartTime     time.Time
	EndTime       time.Time
	Status        BookingStatus

	BookedBy   int64  // caller identity, audit only
	ReleasedBy *int64 // caller identity, audit only
	ReleasedAt *time.Time

	CreatedAt time.Time
}

// IsActive returns true if the booking has not been released
func (b *Booking) IsActive() bool {
	return b.ReleasedAt == nil
}

// Overlaps returns true if the active windows of two bookings intersect
func (b *Booking) Overlaps(other *Booking) bool {
	return b.StartTime.Before(other.EndTime) && other.StartTime.Before(b.EndTime)
}
