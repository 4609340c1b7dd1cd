package eventbus

import (
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// Ключи маршрутизации событий бронирований
const (
	RoutingKeyBookingCreated  = "booking.created"
	RoutingKeyBookingReleased = "booking.released"
)

// BookingMessage событие жизненного цикла бронирования для внешних потребителей
type BookingMessage struct {
	Event         string     `json:"event"`
	BookingID     int64      `json:"bookingId"`
	SlotID        int64      `json:"slotId"`
	LayoutID      int64      `json:"layoutId"`
	CustomerName  string     `json:"customerName"`
	VehicleNumber string     `json:"vehicleNumber"`
	VehicleType   string     `json:"vehicleType"`
	DurationHours int        `json:"durationHours"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       time.Time  `json:"endTime"`
	Status        string     `json:"status"`
	BookedBy      int64      `json:"bookedBy"`
	ReleasedBy    *int64     `json:"releasedBy,omitempty"`
	ReleasedAt    *time.Time `json:"releasedAt,omitempty"`
}

func newBookingMessage(event string, b *domain.Booking) BookingMessage {
	return BookingMessage{
		Event:         event,
		BookingID:     b.ID,
		SlotID:        b.SlotID,
		LayoutID:      b.LayoutID,
		CustomerName:  b.CustomerName,
		VehicleNumber: b.VehicleNumber,
		VehicleType:   b.VehicleType,
		DurationHours: b.DurationHours,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		Status:        string(b.Status),
		BookedBy:      b.BookedBy,
		ReleasedBy:    b.ReleasedBy,
		ReleasedAt:    b.ReleasedAt,
	}
}
