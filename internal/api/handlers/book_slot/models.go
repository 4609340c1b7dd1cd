package book_slot

import (
	"github.com/m04kA/SMC-ParkingService/internal/service/slots/models"
	"github.com/m04kA/SMC-ParkingService/internal/usecase/reservation"
)

// BookSlotRequest HTTP request model
type BookSlotRequest struct {
	CustomerName  string `json:"customerName"`
	VehicleNumber string `json:"vehicleNumber"`
	VehicleType   string `json:"vehicleType,omitempty"`
	DurationHours int    `json:"durationHours"`
}

// BookSlotResponse созданное бронирование и занятый слот
type BookSlotResponse struct {
	models.BookingResponse
	Slot models.SlotResponse `json:"slot"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *BookSlotRequest) ToUseCaseRequest(slotID, actorID int64) *reservation.BookRequest {
	return &reservation.BookRequest{
		SlotID:        slotID,
		CustomerName:  r.CustomerName,
		VehicleNumber: r.VehicleNumber,
		VehicleType:   r.VehicleType,
		DurationHours: r.DurationHours,
		ActorID:       actorID,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *reservation.BookResponse) *BookSlotResponse {
	return &BookSlotResponse{
		BookingResponse: models.FromDomainBooking(resp.Booking),
		Slot:            models.FromDomainSlot(resp.Slot),
	}
}
