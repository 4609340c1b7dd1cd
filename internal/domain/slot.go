package domain

import "time"

// SlotStatus represents the occupancy status of a parking slot
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotOccupied  SlotStatus = "occupied"
)

// IsValid returns true if the status is one of the known slot statuses
func (s SlotStatus) IsValid() bool {
	return s == SlotAvailable || s == SlotOccupied
}

// Slot represents an individually allocatable parking space within a layout
type Slot struct {
	ID          int64
	LayoutID    int64
	Label       string // prefix + sequence number, unique within the layout
	VehicleType string // name of the vehicle type tier
	Status      SlotStatus
	Version     int64 // incremented on every committed status transition
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAvailable returns true if the slot can be booked
func (s *Slot) IsAvailable() bool {
	return s.Status == SlotAvailable
}

// IsOccupied returns true if the slot has an active booking
func (s *Slot) IsOccupied() bool {
	return s.Status == SlotOccupied
}

// StatusCAS describes a conditional status transition.
// The write commits only if the stored status equals From
// and, when Version is non-zero, the stored version equals Version.
type StatusCAS struct {
	SlotID  int64
	From    SlotStatus
	To      SlotStatus
	Version int64
}
