package models

import (
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// SlotResponse слот парковки
type SlotResponse struct {
	ID          int64     `json:"id"`
	LayoutID    int64     `json:"layoutId"`
	Label       string    `json:"label"`
	VehicleType string    `json:"vehicleType"`
	Status      string    `json:"status"`
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SlotListResponse снимок слотов парковки
type SlotListResponse struct {
	LayoutID int64          `json:"layoutId"`
	Slots    []SlotResponse `json:"slots"`
}

// BookingResponse бронирование слота
type BookingResponse struct {
	ID            int64      `json:"id"`
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
	CreatedAt     time.Time  `json:"createdAt"`
}

// BookingListResponse история бронирований слота
type BookingListResponse struct {
	SlotID   int64             `json:"slotId"`
	Bookings []BookingResponse `json:"bookings"`
}

// FromDomainSlot конвертирует слот в ответ
func FromDomainSlot(s *domain.Slot) SlotResponse {
	return SlotResponse{
		ID:          s.ID,
		LayoutID:    s.LayoutID,
		Label:       s.Label,
		VehicleType: s.VehicleType,
		Status:      string(s.Status),
		Version:     s.Version,
		UpdatedAt:   s.UpdatedAt,
	}
}

// FromDomainSlots конвертирует список слотов
func FromDomainSlots(slots []*domain.Slot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, FromDomainSlot(s))
	}
	return out
}

// ToDomainSlot восстанавливает доменный слот из ответа (используется клиентом синхронизации)
func (r SlotResponse) ToDomainSlot() *domain.Slot {
	return &domain.Slot{
		ID:          r.ID,
		LayoutID:    r.LayoutID,
		Label:       r.Label,
		VehicleType: r.VehicleType,
		Status:      domain.SlotStatus(r.Status),
		Version:     r.Version,
		UpdatedAt:   r.UpdatedAt,
	}
}

// FromDomainBooking конвертирует бронирование в ответ
func FromDomainBooking(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
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
		CreatedAt:     b.CreatedAt,
	}
}
